package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa a configuração da aplicação (leitura via Viper de env e opcionalmente arquivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	HTTP  HTTPConfig
	NFe   NFeConfig
	SEFAZ SEFAZConfig
}

// AppConfig configuração geral da aplicação.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// NFeConfig parâmetros fiscais do emitente para a emissão de NFe.
type NFeConfig struct {
	UF                string // sigla da UF do emitente (ex: "SP")
	Ambiente          string // "1" = Produção, "2" = Homologação
	Serie             int    // série padrão das notas (1..999)
	Modelo            string // "55" = NFe
	CNPJ              string // CNPJ do emitente (14 dígitos)
	CertPath          string // caminho do certificado A1 (.pfx/.p12 ou .pem)
	CertKeyPath       string // caminho da chave privada .pem (quando CertPath é só o certificado)
	CertPassword      string // senha do .pfx
	ReformaTributaria bool   // habilita o bloco transitório IBS/CBS
}

// SEFAZConfig parâmetros do cliente de comunicação com a SEFAZ.
type SEFAZConfig struct {
	Timeout        time.Duration // timeout por chamada HTTP
	MaxTentativas  int           // tentativas totais (1 = sem retry)
	BackoffInicial time.Duration // atraso base do backoff exponencial
	BackoffMaximo  time.Duration // teto do atraso entre tentativas
	StatusCacheTTL time.Duration // TTL do cache de consulta de status de serviço
}

// DBConfig configuração do PostgreSQL.
// Se DatabaseURL não estiver vazio, é usado como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devolve o DSN a usar: DATABASE_URL se definido, senão o construído por DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN monta o connection string do PostgreSQL com URL encoding para caracteres especiais.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuração do servidor HTTP.
type HTTPConfig struct {
	Host      string
	Port      int
	JWTSecret string
	// ThrottleLimite requisições por ator por minuto nas rotas de mutação.
	ThrottleLimite int
}

// Addr devolve o endereço de escuta (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lê a configuração de variáveis de ambiente (e opcionalmente de arquivo .env).
// Env vars têm prioridade. Nomes esperados: APP_ENV, DB_HOST, NFE_UF, SEFAZ_TIMEOUT_SECONDS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: arquivo de configuração (.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos erro se não existir

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "zyntra-fiscal"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "zyntra"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 8080),
			JWTSecret:      getString(v, "JWT_SECRET", ""),
			ThrottleLimite: getInt(v, "HTTP_THROTTLE_LIMITE", 120),
		},
		NFe: NFeConfig{
			UF:                getString(v, "NFE_UF", "SP"),
			Ambiente:          getString(v, "NFE_AMBIENTE", "2"),
			Serie:             getInt(v, "NFE_SERIE", 1),
			Modelo:            getString(v, "NFE_MODELO", "55"),
			CNPJ:              getString(v, "NFE_CNPJ", ""),
			CertPath:          getString(v, "NFE_CERT_PATH", ""),
			CertKeyPath:       getString(v, "NFE_CERT_KEY_PATH", ""),
			CertPassword:      getString(v, "NFE_CERT_PASSWORD", ""),
			ReformaTributaria: getBool(v, "NFE_REFORMA_TRIBUTARIA", false),
		},
		SEFAZ: SEFAZConfig{
			Timeout:        time.Duration(getInt(v, "SEFAZ_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxTentativas:  getInt(v, "SEFAZ_MAX_TENTATIVAS", 4),
			BackoffInicial: time.Duration(getInt(v, "SEFAZ_BACKOFF_INICIAL_MS", 500)) * time.Millisecond,
			BackoffMaximo:  time.Duration(getInt(v, "SEFAZ_BACKOFF_MAXIMO_MS", 15000)) * time.Millisecond,
			StatusCacheTTL: time.Duration(getInt(v, "SEFAZ_STATUS_CACHE_TTL_SECONDS", 120)) * time.Second,
		},
	}

	if cfg.NFe.Serie < 1 || cfg.NFe.Serie > 999 {
		return nil, fmt.Errorf("config: NFE_SERIE fora do intervalo 1..999: %d", cfg.NFe.Serie)
	}
	if cfg.SEFAZ.MaxTentativas < 1 {
		return nil, fmt.Errorf("config: SEFAZ_MAX_TENTATIVAS deve ser >= 1")
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
