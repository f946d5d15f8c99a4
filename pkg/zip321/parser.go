// Package zip321 parses and encodes airdrop payment requests in the style
// of ZIP 321, under the "masp:" scheme.
//
// URI Format:
//
//	masp:<address>?asset=<asset>&amount=<amount>&memo=<memo>&message=<message>
//
// Multiple recipients are supported with indexed parameters:
//
//	masp:?address.1=<addr1>&amount.1=<amt1>&address.2=<addr2>&amount.2=<amt2>
//
// Addresses are hex-encoded shielded payment addresses. Amounts are integer
// base units. Memos are base64url without padding. An asset is either a
// 64-character hex asset type or a name hashed into one.
package zip321

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
)

// Scheme is the URI scheme of payment requests.
const Scheme = "masp:"

const maxIndex = 9999

// PaymentRequest is a parsed payment request with one or more payments.
type PaymentRequest struct {
	Payments []Payment
}

// Payment is a single recipient within a request.
type Payment struct {
	Address string  // hex-encoded payment address
	Asset   string  // asset name or hex asset type; empty means the native asset
	Amount  *uint64 // base units (nil = user specifies)
	Memo    []byte  // decoded memo bytes
	Label   *string // optional label for recipient
	Message *string // optional message to display to user
}

// Recipient decodes the payment address.
func (p Payment) Recipient() (note.PaymentAddress, error) {
	return note.ParsePaymentAddressHex(p.Address)
}

// AssetType resolves the asset, defaulting to native.
func (p Payment) AssetType(native asset.Type) (asset.Type, error) {
	if p.Asset == "" {
		return native, nil
	}
	return asset.Resolve(p.Asset)
}

// NoteMemo returns the memo as a fixed-size note memo.
func (p Payment) NoteMemo() (note.Memo, error) {
	return note.MemoFromBytes(p.Memo)
}

// Parse parses a payment request URI.
//
// URI formats supported:
//  1. Single recipient: masp:<address>?asset=NAM&amount=5&memo=aGk
//  2. Multiple recipients: masp:?address.1=addr1&amount.1=1&address.2=addr2&amount.2=2
func Parse(uri string) (*PaymentRequest, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return nil, fmt.Errorf("payment request must start with %q", Scheme)
	}
	rest := strings.TrimPrefix(uri, Scheme)

	base, query, _ := strings.Cut(rest, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	var payments []Payment
	if hasIndexedParams(params) {
		if base != "" {
			return nil, fmt.Errorf("indexed parameters cannot be combined with a base address")
		}
		payments, err = parseIndexedPayments(params)
	} else {
		var p Payment
		p, err = parsePayment(params, "", base)
		payments = []Payment{p}
	}
	if err != nil {
		return nil, err
	}
	return &PaymentRequest{Payments: payments}, nil
}

// parsePayment reads the parameters carrying suffix. base is used when no
// address parameter is present.
func parsePayment(params url.Values, suffix, base string) (Payment, error) {
	p := Payment{Address: base}
	if addr := params.Get("address" + suffix); addr != "" {
		p.Address = addr
	}
	if p.Address == "" {
		return p, fmt.Errorf("payment is missing an address")
	}
	if _, err := p.Recipient(); err != nil {
		return p, fmt.Errorf("invalid address: %w", err)
	}

	p.Asset = params.Get("asset" + suffix)

	if s := params.Get("amount" + suffix); s != "" {
		amount, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		p.Amount = &amount
	}

	if s := params.Get("memo" + suffix); s != "" {
		memo, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return p, fmt.Errorf("invalid memo: %w", err)
		}
		if len(memo) > note.MemoSize {
			return p, fmt.Errorf("memo is %d bytes, maximum is %d", len(memo), note.MemoSize)
		}
		p.Memo = memo
	}

	if label := params.Get("label" + suffix); label != "" {
		p.Label = &label
	}
	if message := params.Get("message" + suffix); message != "" {
		p.Message = &message
	}
	return p, nil
}

// parseIndexedPayments parses recipients with indexed parameters, in index
// order. An unsuffixed parameter belongs to index 0.
func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := map[int]bool{}
	for key := range params {
		idx, ok := extractIndex(key)
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q", key)
		}
		indices[idx] = true
	}

	ordered := make([]int, 0, len(indices))
	for idx := range indices {
		ordered = append(ordered, idx)
	}
	sort.Ints(ordered)

	payments := make([]Payment, 0, len(ordered))
	for _, idx := range ordered {
		suffix := ""
		if idx > 0 {
			suffix = fmt.Sprintf(".%d", idx)
		}
		p, err := parsePayment(params, suffix, "")
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", idx, err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if strings.Contains(key, ".") {
			return true
		}
	}
	return false
}

// extractIndex returns the index of a parameter name: "amount.3" is 3 and
// "amount" is 0. Explicit indices start at 1 and have no leading zeros.
func extractIndex(name string) (int, bool) {
	_, suffix, found := strings.Cut(name, ".")
	if !found {
		return 0, true
	}
	if suffix == "" || suffix[0] == '0' {
		return 0, false
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 1 || idx > maxIndex {
		return 0, false
	}
	return idx, true
}

// Encode formats the request as a URI. It is the inverse of Parse.
func (req *PaymentRequest) Encode() string {
	if len(req.Payments) == 1 {
		p := req.Payments[0]
		params := url.Values{}
		addParams(params, p, "")
		uri := Scheme + p.Address
		if len(params) > 0 {
			uri += "?" + params.Encode()
		}
		return uri
	}

	params := url.Values{}
	for i, p := range req.Payments {
		suffix := fmt.Sprintf(".%d", i+1)
		params.Set("address"+suffix, p.Address)
		addParams(params, p, suffix)
	}
	return Scheme + "?" + params.Encode()
}

func addParams(params url.Values, p Payment, suffix string) {
	if p.Asset != "" {
		params.Set("asset"+suffix, p.Asset)
	}
	if p.Amount != nil {
		params.Set("amount"+suffix, strconv.FormatUint(*p.Amount, 10))
	}
	if len(p.Memo) > 0 {
		params.Set("memo"+suffix, base64.RawURLEncoding.EncodeToString(p.Memo))
	}
	if p.Label != nil {
		params.Set("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Set("message"+suffix, *p.Message)
	}
}
