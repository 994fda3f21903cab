package transport

// ItemRequest fields are pointers so a missing field can be told apart from
// a zero value.
type ItemRequest struct {
	Price   *float64 `json:"price"`
	StoreID *uint    `json:"store_id"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SearchResponse struct {
	Total int64 `json:"total"`
	Items any   `json:"items"`
}
