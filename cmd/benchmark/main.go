package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/models"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	accounts    int
	adminID     string
	adminPass   string
)

// Metrics
var (
	totalRequests uint64
	success200    uint64
	fail422       uint64 // Business rejections (insufficient funds)
	failOther     uint64
)

type benchAccount struct {
	taxID string
	token string
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&accounts, "accounts", 50, "Number of accounts to register")
	flag.StringVar(&adminID, "admin", "", "Administrator tax id or email, enables the conservation check")
	flag.StringVar(&adminPass, "admin-password", "", "Administrator password")
}

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := &http.Client{Timeout: 5 * time.Second}

	var adminToken string
	if adminID != "" {
		var err error
		if adminToken, err = login(client, adminID, adminPass); err != nil {
			logger.Error("admin login", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("registering accounts", "count", accounts)
	pool, err := seedAccounts(client, accounts)
	if err != nil {
		logger.Error("seed accounts", "error", err)
		os.Exit(1)
	}
	var before domain.Money
	if adminToken != "" {
		if before, err = totalBalance(client, adminToken); err != nil {
			logger.Error("read stats", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("starting benchmark", "workload", workload, "workers", concurrency, "duration", duration)
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, pool)
	}
	wg.Wait()
	elapsed := time.Since(start)

	results := map[string]any{
		"workload":       workload,
		"duration_sec":   elapsed.Seconds(),
		"total_requests": atomic.LoadUint64(&totalRequests),
		"throughput_tps": float64(atomic.LoadUint64(&totalRequests)) / elapsed.Seconds(),
		"success":        atomic.LoadUint64(&success200),
		"rejected":       atomic.LoadUint64(&fail422),
		"errors":         atomic.LoadUint64(&failOther),
	}

	conserved := true
	if adminToken != "" {
		after, err := totalBalance(client, adminToken)
		if err != nil {
			logger.Error("read stats", "error", err)
			os.Exit(1)
		}
		results["total_balance_before"] = before.String()
		results["total_balance_after"] = after.String()
		conserved = before.Equal(after)
		results["conserved"] = conserved
	}

	printResults(results)
	if !conserved {
		logger.Error("conservation violated", "before", results["total_balance_before"], "after", results["total_balance_after"])
		os.Exit(2)
	}
}

func worker(wg *sync.WaitGroup, start time.Time, pool []benchAccount) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		from, to := pickPair(len(pool))
		amount := fmt.Sprintf("%d.%02d", rand.Intn(20), rand.Intn(100)+1)

		status, _, err := call(client, http.MethodPost, "/api/v1/transfers", pool[from].token,
			models.TransferRequest{Recipient: pool[to].taxID, Amount: models.Amount(amount)})
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}
		atomic.AddUint64(&totalRequests, 1)
		switch status {
		case http.StatusOK:
			atomic.AddUint64(&success200, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&fail422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
	}
}

func pickPair(n int) (int, int) {
	if workload == "hotspot" && n >= 2 {
		// Hotspot: 90% of traffic goes between the first two accounts
		if rand.Float32() < 0.90 {
			if rand.Float32() < 0.5 {
				return 0, 1
			}
			return 1, 0
		}
	}
	a := rand.Intn(n)
	b := rand.Intn(n)
	for a == b {
		b = rand.Intn(n)
	}
	return a, b
}

func seedAccounts(client *http.Client, n int) ([]benchAccount, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 accounts, got %d", n)
	}
	run := time.Now().UnixNano()
	pool := make([]benchAccount, 0, n)
	for i := 0; i < n; i++ {
		taxID := fmt.Sprintf("bench-%d-%d", run, i)
		password := "bench-" + taxID
		status, out, err := call(client, http.MethodPost, "/api/v1/accounts", "", models.RegisterRequest{
			Name:     fmt.Sprintf("Bench %d", i),
			TaxID:    taxID,
			Email:    taxID + "@bench.local",
			Password: password,
		})
		if err != nil {
			return nil, err
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("register %s: %d %s", taxID, status, out.Message)
		}
		token, err := login(client, taxID, password)
		if err != nil {
			return nil, err
		}
		pool = append(pool, benchAccount{taxID: taxID, token: token})
	}
	return pool, nil
}

func login(client *http.Client, identifier, password string) (string, error) {
	var tok models.TokenResponse
	status, out, err := call(client, http.MethodPost, "/api/v1/sessions", "", models.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login %s: %d %s", identifier, status, out.Message)
	}
	if err := remarshal(out.Data, &tok); err != nil {
		return "", err
	}
	return tok.Token, nil
}

func totalBalance(client *http.Client, token string) (domain.Money, error) {
	var stats domain.SystemStats
	status, out, err := call(client, http.MethodGet, "/api/v1/admin/stats", token, nil)
	if err != nil {
		return domain.Money{}, err
	}
	if status != http.StatusOK {
		return domain.Money{}, fmt.Errorf("stats: %d %s", status, out.Message)
	}
	if err := remarshal(out.Data, &stats); err != nil {
		return domain.Money{}, err
	}
	return stats.TotalBalance, nil
}

func call(client *http.Client, method, path, token string, payload any) (int, models.Outcome, error) {
	var out models.Outcome
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return 0, out, err
		}
	}
	req, err := http.NewRequest(method, targetURL+path, &body)
	if err != nil {
		return 0, out, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, out, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, out, nil
}

func remarshal(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func printResults(results map[string]any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
