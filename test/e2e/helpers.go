//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/api/handlers"
	"github.com/fieldstack/mechanic/internal/manufacturer"
	"github.com/fieldstack/mechanic/internal/openai"
	"github.com/fieldstack/mechanic/internal/repository"
	"github.com/fieldstack/mechanic/internal/server"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/fieldstack/mechanic/internal/sme"
	"github.com/fieldstack/mechanic/internal/storage"
	"github.com/fieldstack/mechanic/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimensions = 1536

// embedderKeywords assign an axis of the embedding space per topic. Any two
// texts sharing a keyword embed identically (cosine similarity 1); texts
// without a shared topic are orthogonal. That makes KB-hit behavior exact.
var embedderKeywords = []string{"F0002", "SRVO-050", "A.710"}

type keywordEmbedder struct{}

func (keywordEmbedder) embed(text string) []float32 {
	v := make([]float32, embeddingDimensions)
	for i, kw := range embedderKeywords {
		if strings.Contains(text, kw) {
			v[i] = 1
			return v
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	v[len(embedderKeywords)+int(h.Sum32()%512)] = 1
	return v
}

func (e keywordEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e keywordEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

// scriptedReasoner stands in for the chat provider. Tests set the answer and
// confidence the SME rung should produce.
type scriptedReasoner struct {
	mu         sync.Mutex
	answer     string
	confidence float64
}

func (r *scriptedReasoner) set(answer string, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answer = answer
	r.confidence = confidence
}

func (r *scriptedReasoner) Reason(ctx context.Context, system, user string) (*openai.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &openai.Reply{Answer: r.answer, Confidence: r.confidence, Raw: r.answer}, nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Reasoner     *scriptedReasoner
	HTTPClient   *http.Client
}

// SetupE2EEnv starts the containers and an in-process server wired with
// deterministic provider stubs.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-manuals",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	reasoner := &scriptedReasoner{answer: "generic advice", confidence: 0.5}
	serverURL, serverCloser := startServer(t, pool, s3Client, reasoner, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Reasoner:     reasoner,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		_ = e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		_ = e.PostgresC.Terminate(e.Ctx)
	}
}

func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, reasoner *scriptedReasoner, port int) (string, func()) {
	atomRepo := repository.NewAtomRepository(pool, embeddingDimensions)
	gapRepo := repository.NewGapRepository(pool)
	manualRepo := repository.NewManualRepository(pool)
	txRunner := repository.NewTxRunner(pool, embeddingDimensions)

	embedder := keywordEmbedder{}
	smeRouter := sme.NewRouter(reasoner)
	detector := manufacturer.NewDetector()

	calculator := service.NewConfidenceCalculator(service.ConfidenceWeights{
		ManufacturerBoost: 0.10,
		ModelBoost:        0.15,
		VerifiedBoost:     0.10,
		StalenessPenalty:  0.10,
		StalenessWindow:   2 * 365 * 24 * time.Hour,
	})

	troubleshootSvc := service.NewTroubleshootService(
		embedder, atomRepo, gapRepo, detector, smeRouter, calculator,
		service.RoutingConfig{
			KBThreshold:       0.85,
			SMEThreshold:      0.70,
			ResearchThreshold: 0.70,
			ClarifyThreshold:  0.40,
			SearchLimit:       10,
			MinAtomConfidence: 0.30,
			MinQueryWords:     4,
			MaxQueryBytes:     4096,
			VendorBoost:       1.5,
			HighValueVendors:  []string{"siemens", "fanuc", "allen-bradley"},
			EmbedTimeout:      5 * time.Second,
			SearchTimeout:     5 * time.Second,
			ReasonTimeout:     5 * time.Second,
		},
	)

	atomSvc := service.NewAtomService(atomRepo, gapRepo, embedder, txRunner)
	gapSvc := service.NewGapService(gapRepo)
	manualSvc := service.NewManualService(manualRepo, s3Client)

	router := server.NewRouter(server.RouterConfig{
		TroubleshootHandler: handlers.NewTroubleshootHandler(troubleshootSvc),
		AtomHandler:         handlers.NewAtomHandler(atomSvc),
		GapHandler:          handlers.NewGapHandler(gapSvc, atomSvc),
		StatsHandler:        handlers.NewStatsHandler(atomSvc),
		ManualHandler:       handlers.NewManualHandler(manualSvc),
	})

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL)

	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	return serverURL, closer
}

func waitForServer(t *testing.T, serverURL string) {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// UploadFile uploads content to a presigned URL
func (e *E2ETestEnv) UploadFile(uploadURL string, content []byte, contentType string) error {
	req, err := http.NewRequest("PUT", uploadURL, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, body)
	}

	return nil
}

// DownloadFile downloads content from a presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Troubleshoot posts a query and decodes the result
func (e *E2ETestEnv) Troubleshoot(query string, equip *handlers.EquipmentContextRequest) (*handlers.TroubleshootResponse, error) {
	resp, err := e.Post("/troubleshoot", handlers.TroubleshootRequest{Query: query, Equipment: equip})
	if err != nil {
		return nil, err
	}
	var result handlers.TroubleshootResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAtom posts an atom and decodes the result
func (e *E2ETestEnv) CreateAtom(req handlers.CreateAtomRequest) (*handlers.AtomResponse, error) {
	resp, err := e.Post("/atoms", req)
	if err != nil {
		return nil, err
	}
	var atom handlers.AtomResponse
	if err := json.Unmarshal(resp.Data, &atom); err != nil {
		return nil, err
	}
	return &atom, nil
}
