package httpapi

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/LulDrako/playmarket-docker/internal/config"
)

// cipherSuites is the TLS 1.2 allow-list. TLS 1.3 suites are not
// configurable in crypto/tls and stay at their defaults.
var cipherSuites = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA256,
}

// NewServer builds the http.Server with the configured timeouts. TLS material
// is attached by Serve.
func NewServer(h http.Handler, cfg config.Config) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// TLSConfig loads the key pair and optional client CA pool.
func TLSConfig(t config.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	tc := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: cipherSuites,
		Certificates: []tls.Certificate{cert},
	}
	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("CA file holds no PEM certificates")
		}
		tc.ClientCAs = pool
	}
	return tc, nil
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests for
// at most cfg.ShutdownTimeout. When TLS is configured but cannot be loaded
// the server falls back to plaintext.
func Serve(ctx context.Context, srv *http.Server, cfg config.Config) error {
	useTLS := false
	if cfg.TLS.Enabled() {
		tc, err := TLSConfig(cfg.TLS)
		if err != nil {
			log.Error().Err(err).Msg("TLS setup failed, serving plain HTTP")
		} else {
			srv.TLSConfig = tc
			useTLS = true
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("tls", useTLS).Str("env", cfg.Env).Msg("server listening")
		var err error
		if useTLS {
			// Certificates already live in srv.TLSConfig.
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
