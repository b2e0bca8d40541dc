package model

// Cấu trúc wire của cổng duyệt-rồi-capture (PayPal REST v1).
// Cổng này xác thực bằng OAuth token, KHÔNG ký HMAC như ví MoMo.

type PayPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type PayPalAmount struct {
	Total    string `json:"total"` // "12.34"
	Currency string `json:"currency"`
}

type PayPalTransaction struct {
	Amount           PayPalAmount            `json:"amount"`
	Description      string                  `json:"description,omitempty"`
	InvoiceNum       string                  `json:"invoice_number,omitempty"` // ORDER_<id>_<suffix>
	RelatedResources []PayPalRelatedResource `json:"related_resources,omitempty"`
}

type PayPalRelatedResource struct {
	Sale *PayPalSale `json:"sale,omitempty"`
}

type PayPalSale struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type PayPalRedirectUrls struct {
	ReturnUrl string `json:"return_url"`
	CancelUrl string `json:"cancel_url"`
}

type PayPalCreateRequest struct {
	Intent       string              `json:"intent"` // "sale"
	Payer        PayPalPayer         `json:"payer"`
	Transactions []PayPalTransaction `json:"transactions"`
	RedirectUrls PayPalRedirectUrls  `json:"redirect_urls"`
}

type PayPalPayer struct {
	PaymentMethod string `json:"payment_method"` // "paypal"
}

type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"` // "approval_url", "execute", ...
	Method string `json:"method"`
}

type PayPalPaymentResponse struct {
	ID           string              `json:"id"`
	State        string              `json:"state"` // created, approved, failed
	Transactions []PayPalTransaction `json:"transactions"`
	Links        []PayPalLink        `json:"links"`
	Payer        struct {
		PayerInfo struct {
			PayerId string `json:"payer_id"`
		} `json:"payer_info"`
	} `json:"payer"`
}

// ApprovalURL tìm link người dùng cần mở để duyệt thanh toán
func (r *PayPalPaymentResponse) ApprovalURL() string {
	for _, l := range r.Links {
		if l.Rel == "approval_url" {
			return l.Href
		}
	}
	return ""
}

type PayPalExecuteRequest struct {
	PayerId string `json:"payer_id"`
}
