package security

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// UserClaims reflète les claims émis par l'identity-service (contrat
// partagé : mêmes champs, même algo RS256).
type UserClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator vérifie les access tokens avec la clé PUBLIQUE uniquement.
// Ce service ne signe jamais rien : l'émission reste chez Identity.
type JWTValidator struct {
	publicKey *rsa.PublicKey
}

func NewJWTValidator(publicKeyPEM []byte) (*JWTValidator, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &JWTValidator{publicKey: pubKey}, nil
}

// Validate vérifie la signature et renvoie l'UserID (Subject).
// On fait ensuite une confiance totale à cet ID : c'est l'identité vérifiée
// de la connexion, jamais celle annoncée dans les payloads du client.
func (j *JWTValidator) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Sécurité critique : refuser tout autre algo que RSA
		// (empêche de forcer "none" ou HS256 signé avec la clé publique)
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.publicKey, nil
	})
	if err != nil {
		return "", domain.ErrInvalidToken // Expiré ou signature invalide
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}

	return claims.Subject, nil
}
