package dto

import (
	"github.com/turtacn/vincent/internal/domain/models"
)

// VerifyJWTRequest asks for a token to be verified. An empty audience means the service's
// configured audience.
type VerifyJWTRequest struct {
	Token    string `json:"token" binding:"required"`
	Audience string `json:"audience"`
}

// DecodedJWTDTO 已验证令牌的 JSON 视图
type DecodedJWTDTO struct {
	PKPAddress   string                 `json:"pkpAddress"`
	PKPPublicKey string                 `json:"pkpPublicKey"`
	Issuer       string                 `json:"iss,omitempty"`
	Audience     []string               `json:"aud"`
	IssuedAt     int64                  `json:"iat"`
	ExpiresAt    int64                  `json:"exp"`
	Header       map[string]interface{} `json:"header"`
	Payload      map[string]interface{} `json:"payload"`
}

// NewDecodedJWTDTO flattens a decoded token.
func NewDecodedJWTDTO(j *models.VincentJWT) *DecodedJWTDTO {
	if j == nil {
		return nil
	}
	return &DecodedJWTDTO{
		PKPAddress:   j.PKPAddress(),
		PKPPublicKey: j.PKPPublicKey(),
		Issuer:       j.Issuer(),
		Audience:     j.Audience(),
		IssuedAt:     j.IssuedAt(),
		ExpiresAt:    j.ExpiresAt(),
		Header:       j.Header,
		Payload:      j.Payload,
	}
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	PKPAddress string         `json:"pkpAddress"`
	DecodedJWT *DecodedJWTDTO `json:"decodedJWT"`
}

// CreateJWTRequest drives token creation from the CLI.
type CreateJWTRequest struct {
	Audience         []string               `json:"audience" validate:"required,min=1,dive,required"`
	ExpiresInMinutes int                    `json:"expiresInMinutes" validate:"min=1"`
	Payload          map[string]interface{} `json:"payload"`
}

// CreateJWTResponse carries a freshly signed token.
type CreateJWTResponse struct {
	Token      string `json:"token"`
	PKPAddress string `json:"pkpAddress"`
	ExpiresAt  int64  `json:"exp"`
}

// ConsentURLResponse 授权页面地址
type ConsentURLResponse struct {
	URL string `json:"url"`
}
