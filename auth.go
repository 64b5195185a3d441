package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Papéis reconhecidos nas claims dos tokens emitidos pelo serviço de sessão.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

const (
	ctxActorID = "actorID"
	ctxRole    = "actorRole"
)

// Claims representa as claims dos tokens de sessão.
// A emissão de tokens é responsabilidade do serviço de autenticação; aqui
// eles são apenas validados.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken indica um bearer token ausente, expirado ou inválido.
var ErrInvalidToken = errors.New("invalid token")

// parseToken valida o bearer token e retorna as claims.
func parseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequireRole é o gate de autorização avaliado no request, antes de qualquer
// handler protegido executar. Ausência de credencial responde 401 e papel
// insuficiente responde 403; nenhum handler chega a rodar.
func RequireRole(secret string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing bearer token",
			})
			return
		}

		claims, err := parseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient role",
			})
			return
		}

		c.Set(ctxActorID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}
