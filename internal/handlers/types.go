package handlers

// MessageBody is the envelope of plain success results.
type MessageBody struct {
	Status  string `doc:"success, failed or error"  example:"success"       json:"status"`
	Message string `doc:"Human readable outcome"    example:"Login successful" json:"message"`
}

// MessageResponse carries a MessageBody.
type MessageResponse struct {
	Body MessageBody
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Body struct {
		Email           string `doc:"Account email"             example:"a@x.com" json:"email,omitempty"`
		Password        string `doc:"Password"                  example:"pw1"     json:"password,omitempty"`
		ConfirmPassword string `doc:"Password, typed again"     example:"pw1"     json:"confirm_password,omitempty"`
	}
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Body struct {
		Email    string `doc:"Account email" example:"a@x.com" json:"email,omitempty"`
		Password string `doc:"Password"      example:"pw1"     json:"password,omitempty"`
	}
}

// LoginResponse is returned by POST /login. Token and UserID are only set
// when the password matched.
type LoginResponse struct {
	Body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		UserID  string `doc:"Account id"            json:"userId,omitempty"`
		Token   string `doc:"Signed session token"  json:"token,omitempty"`
	}
}

// VerifyRequest is GET /verify/{id}. The token is the raw header value.
type VerifyRequest struct {
	ID            string `doc:"Account id the token should name" path:"id"`
	Authorization string `doc:"Session token, no scheme prefix"  header:"Authorization"`
}

// VerifyResponse reports a positive identity check.
type VerifyResponse struct {
	Body struct {
		Status     string `json:"status"`
		IsLoggedIn bool   `json:"is_loggedIn"`
	}
}

// ActivateRequest is GET /activate.
type ActivateRequest struct {
	ActivationString string `doc:"Token from the activation mail" query:"activation_string"`
}

// HTMLResponse is a small page shown to someone following a mailed link.
type HTMLResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ForgotPasswordRequest is the body of POST /password/forgot.
type ForgotPasswordRequest struct {
	Body struct {
		Email string `doc:"Account email" example:"a@x.com" json:"email,omitempty"`
	}
}

// CheckResetTokenRequest is GET /password/check/token.
type CheckResetTokenRequest struct {
	ResetString string `doc:"Composite token from the reset mail" query:"reset_string"`
}

// CheckResetTokenResponse either redirects to the reset page or, when the
// link is no longer valid, renders plain text.
type CheckResetTokenResponse struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ResetPasswordRequest is POST /password/reset/{uid}.
type ResetPasswordRequest struct {
	UID  string `doc:"Account id from the reset page" path:"uid"`
	Body struct {
		Password        string `doc:"New password"                        json:"password,omitempty"`
		ConfirmPassword string `doc:"New password, typed again"           json:"confirm_password,omitempty"`
		ResetString     string `doc:"Composite token from the reset link" json:"reset_string,omitempty"`
	}
}

// CreateShortURLRequest is the body of POST /short-url.
type CreateShortURLRequest struct {
	Body struct {
		LongURL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"long_url,omitempty"`
	}
}

// CreateShortURLResponse describes a newly created link.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL" header:"Location"`
	Body     struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Code     string `doc:"The short code"     example:"abc12345"                           json:"code"`
		ShortURL string `doc:"The full short URL" example:"http://localhost:8888/abc12345"     json:"shortUrl"`
		LongURL  string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"longUrl"`
	}
}

// RedirectRequest is GET /{code}.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc12345" path:"code"`
}

// RedirectResponse sends the client to the long URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}

// ListLinksRequest is GET /users/url-data.
type ListLinksRequest struct{}

// LinkView is one link in an account listing.
type LinkView struct {
	Code      string `json:"code"`
	ShortURL  string `json:"shortUrl"`
	LongURL   string `json:"longUrl"`
	CreatedAt string `json:"createdAt"`
}

// AccountLinksView is the account joined with its links.
type AccountLinksView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsActivated bool       `json:"isActivated"`
	Results     []LinkView `json:"results"`
}

// ListLinksResponse is returned by GET /users/url-data.
type ListLinksResponse struct {
	Body struct {
		Status string           `json:"status"`
		Data   AccountLinksView `json:"data"`
		Items  int              `doc:"Number of links" json:"items"`
	}
}
