package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edsignal/opportunity-cli/internal/engine"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rankings over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := engine.New(st, engine.DefaultWeights())
		if err := eng.Load(ctx); err != nil {
			return err
		}

		mux := newServeMux(eng)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newServeMux wires the ranking routes onto a fresh mux.
func newServeMux(eng *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /rankings", func(w http.ResponseWriter, r *http.Request) {
		filters, err := filtersFromQuery(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		ranked, err := eng.Rank(r.Context(), filters)
		switch {
		case eris.Is(err, engine.ErrInvalidFilter):
			writeJSONError(w, http.StatusBadRequest, err)
			return
		case eris.Is(err, engine.ErrDataUnavailable):
			writeJSONError(w, http.StatusServiceUnavailable, err)
			return
		case err != nil:
			zap.L().Error("ranking request failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, eris.New("internal error"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"count":    len(ranked),
			"rankings": ranked,
		})
	})

	return mux
}

// filtersFromQuery parses ranking filters from URL query parameters.
// Unparseable numbers are invalid-filter conditions, same as
// out-of-domain values.
func filtersFromQuery(r *http.Request) (engine.Filters, error) {
	q := r.URL.Query()
	f := engine.Filters{CIPPrefix: q.Get("cip")}

	if v := q.Get("credential"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.Wrapf(engine.ErrInvalidFilter, "credential: %v", err)
		}
		f.CredentialLevel = n
	}
	if v := q.Get("region"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.Wrapf(engine.ErrInvalidFilter, "region: %v", err)
		}
		f.RegionID = n
	}
	if v := q.Get("max_net_price"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, eris.Wrapf(engine.ErrInvalidFilter, "max_net_price: %v", err)
		}
		f.MaxNetPrice = &x
	}
	if v := q.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.Wrapf(engine.ErrInvalidFilter, "top_k: %v", err)
		}
		f.TopK = n
	}

	return f, nil
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
