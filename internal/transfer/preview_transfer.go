package transfer

type PreviewMedia struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Primary bool   `json:"primary"`
}

// Preview is a render-ready description of how the draft will look on one
// platform's feed card.
type Preview struct {
	Platform         string         `json:"platform"`
	Subtype          string         `json:"subtype,omitempty"`
	AspectRatio      string         `json:"aspect_ratio"`
	Caption          string         `json:"caption"`
	BrandName        string         `json:"brand_name,omitempty"`
	AccountName      string         `json:"account_name,omitempty"`
	AccountPicture   string         `json:"account_picture,omitempty"`
	Media            []PreviewMedia `json:"media"`
	Placeholder      bool           `json:"placeholder"`
	VideoLoading     bool           `json:"video_loading"`
	SpinnerTimeoutMS int            `json:"spinner_timeout_ms,omitempty"`
	Chrome           []string       `json:"chrome"`
}
