package qrlogin

import (
	"encoding/json"
	"strings"
)

// doudianResponse is the envelope shared by SSO endpoints
type doudianResponse struct {
	Message     string          `json:"message"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Data        json.RawMessage `json:"data"`
}

// IsSuccess reports whether the envelope carries the success sentinel
func (r *doudianResponse) IsSuccess() bool {
	return r.Message == "success"
}

// errorMessage returns the most specific failure text in the envelope
func (r *doudianResponse) errorMessage() string {
	var data struct {
		Description string `json:"description"`
	}
	_ = json.Unmarshal(r.Data, &data)
	switch {
	case data.Description != "":
		return data.Description
	case r.Description != "":
		return r.Description
	}
	return r.Message
}

type doudianQRCodeData struct {
	QRCodeIndexURL string `json:"qrcode_index_url"`
	QRCode         string `json:"qrcode"`
	Token          string `json:"token"`
}

type doudianPollData struct {
	Status          string          `json:"status"`
	RedirectURL     string          `json:"redirect_url"`
	VerifyTicket    string          `json:"verify_ticket"`
	VerifyWays      json.RawMessage `json:"verify_ways"`
	VerifySceneDesc string          `json:"verify_scene_desc"`
}

type doudianVerifyData struct {
	VerifyTicket string `json:"verify_ticket"`
	Description  string `json:"description"`
}

// doudianSubjectResponse is returned by the fxg login subject endpoint,
// which uses msg rather than message
type doudianSubjectResponse struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
	Data *struct {
		LoginSubjectList []DoudianSubject `json:"login_subject_list"`
	} `json:"data"`
}

// DoudianSubject is one shop the logged-in account can switch into
type DoudianSubject struct {
	AccountID      string `json:"account_id"`
	AccountName    string `json:"account_name"`
	MemberID       string `json:"member_id"`
	EncodeShopID   string `json:"encode_shop_id"`
	EncodeMemberID string `json:"encode_member_id"`
}

// parseVerifyWays accepts either a list of channel names or a list of
// objects carrying a verify_way field
func parseVerifyWays(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names
	}
	var objs []struct {
		VerifyWay string `json:"verify_way"`
		Way       string `json:"way"`
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		switch {
		case o.VerifyWay != "":
			out = append(out, o.VerifyWay)
		case o.Way != "":
			out = append(out, o.Way)
		}
	}
	return out
}

// containsMarker reports whether body mentions marker as a JSON key or value
func containsMarker(body []byte, marker string) bool {
	return marker != "" && strings.Contains(string(body), marker)
}
