package models

import "strings"

type (
	// SendInvitationRequest is the body accepted by the send-invitation handler.
	// The simulate variant reads the camelCase fields, the relay variant the snake_case ones;
	// reset_link is what the invitation workflow sends.
	SendInvitationRequest struct {
		Email             string `json:"email"`
		Name              string `json:"name,omitempty"`
		TemporaryPassword string `json:"temporaryPassword,omitempty"`
		FamilyName        string `json:"familyName,omitempty"`
		IsExistingUser    bool   `json:"isExistingUser,omitempty"`

		TempPassword string `json:"temp_password,omitempty"`
		Token        string `json:"token,omitempty"`
		RedirectURL  string `json:"redirect_url,omitempty"`
		ResetLink    string `json:"reset_link,omitempty"`
	}

	SimulatedSendResponse struct {
		Success   bool                `json:"success"`
		Message   string              `json:"message,omitempty"`
		Recipient string              `json:"recipient,omitempty"`
		Debug     *SimulatedSendDebug `json:"debug,omitempty"`
		Error     string              `json:"error,omitempty"`
	}

	SimulatedSendDebug struct {
		RequestParams     SimulatedSendParams `json:"requestParams"`
		TemporaryPassword string              `json:"temporaryPassword"`
	}

	SimulatedSendParams struct {
		Email          string `json:"email"`
		Name           string `json:"name"`
		FamilyName     string `json:"familyName"`
		IsExistingUser bool   `json:"isExistingUser"`
	}

	// RelaySendResponse is the answer of the relay variant; exactly one field is set
	RelaySendResponse struct {
		Message string `json:"message,omitempty"`
		Error   string `json:"error,omitempty"`
	}

	TestDeliveryRequest struct {
		Email string `json:"email"`
	}

	TestDeliveryResponse struct {
		Success bool   `json:"success,omitempty"`
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}

	InviteResponse struct {
		UserID    string `json:"userId"`
		Message   string `json:"message"`
		ResetLink string `json:"resetLink"`

		// legacy keys still read by older app builds
		ID              string `json:"id"`
		LegacyResetLink string `json:"reset_link"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

// Link returns the action link to put in a relayed message: reset_link when given,
// otherwise redirect_url carrying the token.
func (r SendInvitationRequest) Link() string {
	if r.ResetLink != "" {
		return r.ResetLink
	}
	if r.RedirectURL == "" {
		return ""
	}
	if r.Token == "" {
		return r.RedirectURL
	}
	separator := "?"
	if strings.Contains(r.RedirectURL, "?") {
		separator = "&"
	}
	return r.RedirectURL + separator + "token=" + r.Token
}

// Password returns whichever temporary password field was sent
func (r SendInvitationRequest) Password() string {
	if r.TempPassword != "" {
		return r.TempPassword
	}
	return r.TemporaryPassword
}

func NewInviteResponse(userID, resetLink string) InviteResponse {
	return InviteResponse{
		UserID:          userID,
		Message:         "User invited successfully",
		ResetLink:       resetLink,
		ID:              userID,
		LegacyResetLink: resetLink,
	}
}
