package config

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	JWTPrivateKey *rsa.PrivateKey
	JWTPublicKey  *rsa.PublicKey
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	SessionTTL    time.Duration
	Port          string
	DevMode       bool
}

func Load() *Config {
	devMode := os.Getenv("DEV_MODE") == "true"

	var privateKey *rsa.PrivateKey
	var publicKey *rsa.PublicKey
	var err error

	if devMode {
		// Dev mode runs with an ephemeral keypair so no PEM files are needed.
		privateKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic("Failed to generate dev keypair: " + err.Error())
		}
		publicKey = &privateKey.PublicKey
	} else {
		privateKeyPath := os.Getenv("PRIVATE_KEY_PATH")
		if privateKeyPath == "" {
			privateKeyPath = "/etc/certs/private.pem"
		}
		privateKey, err = loadPrivateKey(privateKeyPath)
		if err != nil {
			panic("Failed to load private key: " + err.Error())
		}

		publicKeyPath := os.Getenv("PUBLIC_KEY_PATH")
		if publicKeyPath == "" {
			publicKeyPath = "/etc/certs/public.pem"
		}
		publicKey, err = loadPublicKey(publicKeyPath)
		if err != nil {
			panic("Failed to load public key: " + err.Error())
		}
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" && !devMode {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" && !devMode {
		panic("REDIS_ADDRESS environment variable is required")
	}

	sessionTTL := 30 * 24 * time.Hour
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic("Invalid SESSION_TTL: " + err.Error())
		}
		sessionTTL = d
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		JWTPrivateKey: privateKey,
		JWTPublicKey:  publicKey,
		DatabaseURL:   dbURL,
		RedisAddress:  redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    sessionTTL,
		Port:          port,
		DevMode:       devMode,
	}
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return privateKey, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return publicKey, nil
}
