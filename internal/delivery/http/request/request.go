package request

type GetPriceRequest struct {
	URL string `json:"url"`
}
