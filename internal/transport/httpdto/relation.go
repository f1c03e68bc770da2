package httpdto

type PrivacyRequest struct {
	Privacy string `json:"privacy" binding:"required"`
}

type PrivacyResponse struct {
	Privacy string `json:"privacy"`
}
