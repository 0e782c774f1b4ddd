package utils

import (
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ValidateToken parses and verifies an HS256 bearer token minted by the
// identity service. Token creation lives there, not here: analytics only
// consumes the actor identity.
func ValidateToken(tokenString, secret string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return token, nil
}

// ActorFromToken pulls the actor identifier out of validated claims. The
// identity service writes it as "userId"; "sub" is accepted as a fallback.
func ActorFromToken(token *jwt.Token) string {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if id, ok := claims["userId"].(string); ok && id != "" {
		return id
	}
	if id, ok := claims["userId"].(float64); ok {
		return fmt.Sprintf("%.0f", id)
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
