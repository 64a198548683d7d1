package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/escrowauction/core"
	"github.com/cloudx-io/escrowauction/receipt"
)

// EngineServer exposes the auction engine's command surface over a
// request/response socket: one JSON command per connection. It wires the
// in-memory reference collaborators; real asset and payment transports are
// substituted behind the same interfaces at integration time.
type EngineServer struct {
	listen string

	engine *core.Engine
	signer *receipt.Signer
	assets *core.MemoryAssetBook
	bank   *core.MemoryBank

	custodyAccount string
}

func NewEngineServer(listen string) *EngineServer {
	return &EngineServer{listen: listen, custodyAccount: core.DefaultCustodyAccount}
}

func (s *EngineServer) Start() error {
	signer, err := receipt.NewSigner()
	if err != nil {
		return fmt.Errorf("failed to initialize receipt signer: %w", err)
	}
	s.signer = signer
	log.Printf("INFO: receipt signer initialized, public key %s",
		base64.StdEncoding.EncodeToString(signer.PublicKey()))

	s.assets = core.NewMemoryAssetBook()
	s.bank = core.NewMemoryBank()
	s.engine = core.NewEngine(s.assets, s.bank, core.Config{
		CustodyAccount: s.custodyAccount,
	})
	log.Printf("INFO: auction engine initialized (custody account %q)", s.custodyAccount)

	if err := s.seedGenesis(); err != nil {
		return fmt.Errorf("failed to seed genesis state: %w", err)
	}

	listener, err := listen(s.listen)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: engine server listening on %s", s.listen)

	maxWorkers, err := getRequiredEnvInt("ENGINE_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *EngineServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	_, err := io.Copy(&buf, conn)
	if err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(buf.Bytes(), &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	response := s.dispatch(baseReq.Type, buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	} else {
		log.Printf("INFO: Successfully sent response for %s", baseReq.Type)
	}
}

// listen opens the configured listener. "vsock:<port>" binds a vsock port
// for deployments inside an isolated VM; "tcp:<addr>" serves local runs.
func listen(spec string) (net.Listener, error) {
	scheme, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("invalid listen spec %q (want vsock:<port> or tcp:<addr>)", spec)
	}
	switch scheme {
	case "vsock":
		port, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vsock port %q: %w", rest, err)
		}
		return vsock.Listen(uint32(port), nil)
	case "tcp":
		return net.Listen("tcp", rest)
	default:
		return nil, fmt.Errorf("unsupported listen scheme %q", scheme)
	}
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

func main() {
	listenSpec := os.Getenv("ENGINE_LISTEN")
	if listenSpec == "" {
		listenSpec = "vsock:5000"
	}
	server := NewEngineServer(listenSpec)
	log.Fatal(server.Start())
}
