package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/pantry-scanner/internal/auth"
	"github.com/zombor/pantry-scanner/internal/logging"
	"github.com/zombor/pantry-scanner/internal/pantry"
	"github.com/zombor/pantry-scanner/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("pantry-scanner")
	var (
		port             = fs.IntLong("port", 8000, "HTTP server port")
		storeType        = fs.StringLong("store", "bolt", "Document store: 'bolt' or 'firestore'")
		dbPath           = fs.StringLong("db", "pantry-scanner.db", "BoltDB file path (bolt store)")
		firestoreProject = fs.StringLong("firestore-project", "", "Google Cloud project ID (firestore store)")
		scannerType      = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini', 'vertex' or 'ollama'")
		geminiKey        = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel      = fs.StringLong("gemini-model", "gemini-1.5-flash", "Google Gemini model name")
		vertexProject    = fs.StringLong("vertex-project", "", "Vertex AI project ID")
		vertexRegion     = fs.StringLong("vertex-region", "us-central1", "Vertex AI region")
		vertexModel      = fs.StringLong("vertex-model", "gemini-1.5-flash", "Vertex AI model name")
		ollamaURL        = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel      = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		authType         = fs.StringLong("auth", "jwt", "Token verifier: 'jwt' or 'firebase'")
		firebaseProject  = fs.StringLong("firebase-project", "", "Firebase project ID (firebase auth)")
		jwtSecret        = fs.StringLong("jwt-secret", "", "HS256 secret used to verify bearer tokens (jwt auth)")
		jwtIssuer        = fs.StringLong("jwt-issuer", "", "Required token issuer (optional)")
		corsOrigin       = fs.StringLong("cors-origin", "http://localhost:5173", "Allowed CORS origin")
		maxUploadMB      = fs.IntLong("max-upload-mb", 20, "Maximum receipt image size in MB")
		maxItems         = fs.IntLong("max-items", pantry.DefaultMaxItems, "Maximum items accepted from one receipt")
		inferenceTimeout = fs.DurationLong("inference-timeout", 60*time.Second, "Timeout for one model call")
		logLevel         = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		showVersion      = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PANTRY_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logging.Setup(os.Stderr, *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize token verifier based on type
	var verifier auth.Verifier
	var err error
	switch *authType {
	case "jwt":
		verifier, err = auth.NewJWTVerifier(*jwtSecret, *jwtIssuer)
	case "firebase":
		slog.Info("Initializing Firebase token verifier...", "project", *firebaseProject)
		verifier, err = auth.NewFirebaseVerifier(ctx, *firebaseProject)
	default:
		slog.Error("Invalid auth type", "type", *authType, "valid", "jwt or firebase")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize token verifier", "type", *authType, "error", err)
		os.Exit(1)
	}

	// Initialize document store based on type
	var db pantry.DB
	switch *storeType {
	case "bolt":
		slog.Info("Initializing BoltDB store...", "path", *dbPath)
		db, err = pantry.NewBoltDB(*dbPath)
	case "firestore":
		slog.Info("Initializing Firestore store...", "project", *firestoreProject)
		db, err = pantry.NewFirestoreDB(ctx, *firestoreProject)
	default:
		slog.Error("Invalid store type", "type", *storeType, "valid", "bolt or firestore")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel, *inferenceTimeout)
	case "vertex":
		slog.Info("Initializing Vertex AI scanner...", "project", *vertexProject, "region", *vertexRegion, "model", *vertexModel)
		scanner, err = scanning.NewVertex(ctx, *vertexProject, *vertexRegion, *vertexModel, *inferenceTimeout)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel, *inferenceTimeout)
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini, vertex or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize scanner", "type", *scannerType, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	service := pantry.NewService(db, scanner, *maxItems)
	server := pantry.NewServer(service, verifier, pantry.ServerConfig{
		CORSOrigin:     *corsOrigin,
		MaxUploadBytes: int64(*maxUploadMB) << 20,
	})

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if err := server.Run(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}
