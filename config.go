package main

import (
	"fmt"
	"os"
	"strings"
)

// Config concentra toda a configuração do serviço, resolvida uma única vez
// no boot do processo. A classificação de hosts (domínio raiz, sufixo local)
// nunca é decidida por request.
type Config struct {
	Port        string
	ServiceName string

	DatabaseURL string
	RedisAddr   string

	// RootDomain é o domínio de produção sem subdomínio (ex: fairprice.ng).
	RootDomain string
	// RootDomainLabels é a quantidade de labels do domínio raiz (fairprice.ng = 2).
	RootDomainLabels int
	// LocalSuffix marca hosts de desenvolvimento (ex: acme.local).
	LocalSuffix string
	// ExcludedPaths nunca sofrem rewrite de tenant (API, assets, metadados).
	ExcludedPaths []string

	JWTSecret string

	PaystackBaseURL string
	PaystackSecret  string

	OTLPEndpoint string
}

// loadConfig monta a configuração a partir das variáveis de ambiente.
func loadConfig() *Config {
	rootDomain := getEnv("ROOT_DOMAIN", "fairprice.ng")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "storefront-service"),

		DatabaseURL: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=25&pool_min_conns=5",
			getEnv("DATABASE_USER", "root"),
			getEnv("DATABASE_PASSWORD", "pass"),
			getEnv("DATABASE_HOST", "localhost"),
			getEnv("DATABASE_PORT", "5432"),
			getEnv("DATABASE_NAME", "storefront_db"),
		),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		RootDomain:       rootDomain,
		RootDomainLabels: strings.Count(rootDomain, ".") + 1,
		LocalSuffix:      getEnv("LOCAL_DOMAIN_SUFFIX", ".local"),
		ExcludedPaths: []string{
			"/api/",
			"/assets/",
			"/health",
			"/favicon.ico",
			"/sitemap.xml",
			"/robots.txt",
		},

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		PaystackBaseURL: getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecret:  getEnv("PAYSTACK_SECRET_KEY", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
