package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims padrão mais os campos da aplicação. Perfil permite ao
// middleware decidir autorização sem consultar o banco.
type Claims struct {
	jwt.RegisteredClaims
	AtorID string `json:"ator_id"`
	Perfil string `json:"perfil"` // "fiscal" | "consulta"
}

// Generate emite um token HS256 para o ator.
func Generate(secret, atorID, perfil, issuer string, expMinutos int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vazio")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   atorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutos) * time.Minute)),
		},
		AtorID: atorID,
		Perfil: perfil,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida o token e devolve ator e perfil. Erro para token inválido,
// expirado ou com assinatura incorreta.
func Parse(secret, tokenString string) (atorID, perfil string, err error) {
	if secret == "" {
		return "", "", fmt.Errorf("jwt: secret vazio")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("claims inválidos")
	}
	return claims.AtorID, claims.Perfil, nil
}
