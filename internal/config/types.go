package config

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
}
