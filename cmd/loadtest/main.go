// loadtest нагружает сайт пекарни сценариями просмотра меню и оформления заказа.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	stepScenario = "scenario"
	stepMenu     = "GET /menu"
	stepCheckout = "POST /checkout"
	stepBill     = "GET /bill"
)

type loadMode string

const (
	modeBrowse       loadMode = "browse"
	modeCheckout     loadMode = "checkout"
	modeCheckoutBill loadMode = "checkout-bill"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	itemIDs     []string
	customerTag string
	outputPath  string
}

func parseConfig(args []string) (config, error) {
	var (
		cfg           config
		modeValue     string
		itemsValue    string
		timeoutValue  string
		durationValue string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "url", "http://localhost:5000", "base URL of the bakery site")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 1m, 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 20, "number of concurrent workers")
	fs.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	fs.StringVar(&modeValue, "mode", string(modeCheckout), "load mode: browse | checkout | checkout-bill")
	fs.StringVar(&itemsValue, "items", "1", "comma-separated menu item ids to order")
	fs.StringVar(&cfg.customerTag, "customer-tag", "load", "customer name prefix")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	cfg.itemIDs, err = parseItemIDs(itemsValue)
	if err != nil {
		return cfg, err
	}

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if _, err := url.ParseRequestURI(cfg.baseURL); err != nil {
		return cfg, fmt.Errorf("invalid url: %w", err)
	}

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case strings.TrimSpace(cfg.customerTag) == "":
		return cfg, errors.New("customer-tag is required")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeBrowse, modeCheckout, modeCheckoutBill:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func parseItemIDs(value string) ([]string, error) {
	var ids []string
	for _, raw := range strings.Split(value, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid item id %q", raw)
		}
		ids = append(ids, raw)
	}
	return ids, nil
}

func newHTTPClient(cfg config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.concurrency

	return &http.Client{
		Timeout:   cfg.timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// runLoad выполняет сценарии не более чем в cfg.concurrency горутин.
func runLoad(ctx context.Context, cfg config, client *http.Client, runID string, col *collector) {
	dispatchCtx := ctx
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)

	for i := 0; ; i++ {
		if (cfg.duration <= 0 || cfg.totalSet) && i >= cfg.total {
			break
		}
		if dispatchCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			_ = runScenario(ctx, client, cfg, i, runID, col)
			return nil
		})
	}

	_ = g.Wait()
}

func runScenario(ctx context.Context, client *http.Client, cfg config, index int, runID string, col *collector) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		col.record(stepScenario, time.Since(start), outcome, err == nil)
	}()

	if cfg.mode == modeBrowse {
		_, err = call(ctx, client, col, stepMenu, http.MethodGet, cfg.baseURL+"/menu", nil, http.StatusOK)
		return err
	}

	form := url.Values{
		"username": {fmt.Sprintf("%s-%s-%d", cfg.customerTag, runID, index)},
		"item_ids": cfg.itemIDs,
	}
	resp, err := call(ctx, client, col, stepCheckout, http.MethodPost, cfg.baseURL+"/checkout", form, http.StatusSeeOther)
	if err != nil {
		return err
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "/bill/") {
		return fmt.Errorf("unexpected redirect location %q", location)
	}
	if cfg.mode == modeCheckout {
		return nil
	}

	_, err = call(ctx, client, col, stepBill, http.MethodGet, cfg.baseURL+location, nil, http.StatusOK)
	return err
}

// call выполняет запрос, вычитывает тело и записывает результат шага.
func call(ctx context.Context, client *http.Client, col *collector, step, method, target string, form url.Values, want int) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		col.record(step, time.Since(start), outcomeTransportError, false)
		return nil, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	ok := resp.StatusCode == want
	col.record(step, time.Since(start), strconv.Itoa(resp.StatusCode), ok)
	if !ok {
		return resp, fmt.Errorf("%s: unexpected status %d", step, resp.StatusCode)
	}
	return resp, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	startedAt := time.Now()
	runID := strconv.FormatInt(startedAt.UnixNano(), 36)
	col := newCollector()

	runLoad(context.Background(), cfg, newHTTPClient(cfg), runID, col)

	result := col.buildReport(startedAt, time.Since(startedAt))
	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}
