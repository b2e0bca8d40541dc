package model

// MoMoCreateRequest body gửi sang MoMo khi tạo thanh toán.
// Thứ tự ký của request TẠO khác thứ tự ký của callback XÁC NHẬN,
// tuyệt đối không dùng chung (xem CanonicalPairs của từng struct).
type MoMoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestId   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderId     string `json:"orderId"` // mã đơn phía gateway: ORDER_<id>_<suffix>
	OrderInfo   string `json:"orderInfo"`
	ReturnUrl   string `json:"returnUrl"`
	NotifyUrl   string `json:"notifyUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

// CanonicalPairs các cặp key=value theo đúng thứ tự giao thức yêu cầu khi ký request tạo
func (r *MoMoCreateRequest) CanonicalPairs() [][2]string {
	return [][2]string{
		{"partnerCode", r.PartnerCode},
		{"accessKey", r.AccessKey},
		{"requestId", r.RequestId},
		{"amount", r.Amount},
		{"orderId", r.OrderId},
		{"orderInfo", r.OrderInfo},
		{"returnUrl", r.ReturnUrl},
		{"notifyUrl", r.NotifyUrl},
		{"extraData", r.ExtraData},
	}
}

type MoMoCreateResponse struct {
	RequestId string `json:"requestId"`
	OrderId   string `json:"orderId"`
	Message   string `json:"message"`
	PayUrl    string `json:"payUrl"`
	ErrorCode string `json:"errorCode"` // "0" = thành công
	Signature string `json:"signature"`
}

// MoMoConfirmation bộ tham số xác nhận, đến từ cả hai kênh
// (redirect trình duyệt và IPN server-to-server) với cùng một cấu trúc.
type MoMoConfirmation struct {
	PartnerCode  string `json:"partnerCode" query:"partnerCode"`
	AccessKey    string `json:"accessKey" query:"accessKey"`
	RequestId    string `json:"requestId" query:"requestId"`
	Amount       string `json:"amount" query:"amount"`
	OrderId      string `json:"orderId" query:"orderId"`
	OrderInfo    string `json:"orderInfo" query:"orderInfo"`
	OrderType    string `json:"orderType" query:"orderType"`
	TransId      string `json:"transId" query:"transId"`
	Message      string `json:"message" query:"message"`
	LocalMessage string `json:"localMessage" query:"localMessage"`
	ResponseTime string `json:"responseTime" query:"responseTime"`
	ErrorCode    string `json:"errorCode" query:"errorCode"`
	PayType      string `json:"payType" query:"payType"`
	ExtraData    string `json:"extraData" query:"extraData"`
	Signature    string `json:"signature" query:"signature"`
}

// CanonicalPairs thứ tự ký của bản tin xác nhận (khác thứ tự request tạo)
func (c *MoMoConfirmation) CanonicalPairs() [][2]string {
	return [][2]string{
		{"partnerCode", c.PartnerCode},
		{"accessKey", c.AccessKey},
		{"requestId", c.RequestId},
		{"amount", c.Amount},
		{"orderId", c.OrderId},
		{"orderInfo", c.OrderInfo},
		{"orderType", c.OrderType},
		{"transId", c.TransId},
		{"message", c.Message},
		{"localMessage", c.LocalMessage},
		{"responseTime", c.ResponseTime},
		{"errorCode", c.ErrorCode},
		{"payType", c.PayType},
		{"extraData", c.ExtraData},
	}
}
