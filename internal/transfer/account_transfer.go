package transfer

type ConnectedAccount struct {
	ID         int64  `json:"id"`
	SocialID   string `json:"social_id"`
	Name       string `json:"name"`
	PageType   string `json:"page_type"`
	PictureURL string `json:"picture_url"`
}

// ConnectedPagesResponse handles both response shapes the backend produces:
// accounts nested under data, or at the top level.
type ConnectedPagesResponse struct {
	Data struct {
		Accounts []ConnectedAccount `json:"accounts"`
	} `json:"data"`
	Accounts []ConnectedAccount `json:"accounts"`
}

func (r *ConnectedPagesResponse) All() []ConnectedAccount {
	if len(r.Data.Accounts) > 0 {
		return r.Data.Accounts
	}
	return r.Accounts
}
