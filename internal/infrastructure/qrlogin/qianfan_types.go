package qrlogin

import "encoding/json"

// qianfanResponse is the envelope shared by customer and ark endpoints
type qianfanResponse struct {
	Code    int             `json:"code"`
	Success *bool           `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// IsSuccess reports whether the envelope reports success
func (r *qianfanResponse) IsSuccess() bool {
	if r.Success != nil {
		return *r.Success && r.Code == 0
	}
	return r.Code == 0
}

func (r *qianfanResponse) message() string {
	if r.Msg != "" {
		return r.Msg
	}
	return "request failed"
}

type qianfanQRCodeData struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

const qianfanStatusApproved = 1

type qianfanPollData struct {
	Status          int             `json:"status"`
	Ticket          string          `json:"ticket"`
	VerifyTicket    string          `json:"verify_ticket"`
	VerifyWays      json.RawMessage `json:"verify_ways"`
	VerifySceneDesc string          `json:"verify_scene_desc"`
}

type qianfanVerifyData struct {
	VerifyTicket string `json:"verify_ticket"`
}

type qianfanSellerInfo struct {
	CompanyName string `json:"company_name"`
	SellerID    string `json:"seller_id"`
}
