// Package monitoring exposes cache simulation sessions over HTTP. It is the
// collaborator layer around the engine: every endpoint validates its input,
// calls into one session's engine, and renders the returned state. Each
// session owns one engine and serializes access to it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/cachevis/cache"
	"github.com/sarchlab/cachevis/datarecording"
)

// A Server hosts cache simulation sessions and allows external clients to
// create, access, inspect, and reset them.
type Server struct {
	portNumber int

	// The recorder is shared by all sessions and is not safe for
	// concurrent use; recorderLock serializes it.
	recorder     datarecording.DataRecorder
	recorderLock sync.Mutex

	sessionsLock sync.RWMutex
	sessions     map[string]*session
}

// A session is one independently simulated cache. Its mutex serializes all
// engine use, so concurrent requests against the same session cannot
// interleave accesses.
type session struct {
	id string

	mu     sync.Mutex
	engine *cache.Engine
	logger *datarecording.AccessLogger
}

// NewServer creates a new Server.
func NewServer() *Server {
	return &Server{
		sessions: make(map[string]*session),
	}
}

// WithPortNumber sets the port number of the server.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the simulation server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithRecorder makes the server log every access of every session into the
// given recorder.
func (s *Server) WithRecorder(r datarecording.DataRecorder) *Server {
	s.recorder = r

	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/caches", s.createCache).Methods("POST")
	r.HandleFunc("/api/caches/{id}", s.getState).Methods("GET")
	r.HandleFunc("/api/caches/{id}", s.deleteCache).Methods("DELETE")
	r.HandleFunc("/api/caches/{id}/access", s.access).Methods("POST")
	r.HandleFunc("/api/caches/{id}/reset", s.resetCache).Methods("POST")
	r.HandleFunc("/api/resource", s.listResources)
	r.HandleFunc("/api/profile", s.collectProfile)
	r.HandleFunc("/", s.apiIndex)

	return r
}

// StartServer starts serving the API and returns the port it listens on.
func (s *Server) StartServer() int {
	http.Handle("/", s.router())

	actualPort := ":0"
	if s.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(os.Stderr,
		"Serving cache simulations at http://localhost:%d\n", port)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	return port
}

type createReq struct {
	CacheSize   int    `json:"cache_size"`
	BlockSize   int    `json:"block_size"`
	CacheType   string `json:"cache_type"`
	WritePolicy string `json:"write_policy"`
}

func (s *Server) createCache(w http.ResponseWriter, r *http.Request) {
	req := createReq{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	cfg, err := configFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, err := cache.New(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := &session{
		id:     xid.New().String(),
		engine: engine,
	}

	if s.recorder != nil {
		s.recorderLock.Lock()
		sess.logger = datarecording.NewAccessLogger(sess.id, s.recorder)
		s.recorderLock.Unlock()
	}

	s.sessionsLock.Lock()
	s.sessions[sess.id] = sess
	s.sessionsLock.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"id":          sess.id,
		"cache_state": stateJSON(engine),
	})
}

func configFromRequest(req createReq) (cache.Config, error) {
	placement, err := cache.ParsePlacement(req.CacheType)
	if err != nil {
		return cache.Config{}, err
	}

	writePolicy, err := cache.ParseWritePolicy(req.WritePolicy)
	if err != nil {
		return cache.Config{}, err
	}

	return cache.Config{
		CacheSize:   req.CacheSize,
		BlockSize:   req.BlockSize,
		Placement:   placement,
		WritePolicy: writePolicy,
	}, nil
}

type accessReq struct {
	Address   json.Number `json:"address"`
	Operation string      `json:"operation"`
}

func (s *Server) access(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	req := accessReq{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	address, err := req.Address.Int64()
	if err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid address: %q is not an integer", req.Address))
		return
	}

	op, err := cache.ParseOperation(req.Operation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	ev, err := sess.engine.Access(address, op)
	sess.mu.Unlock()

	if err == nil && sess.logger != nil {
		s.recorderLock.Lock()
		sess.logger.Record(ev)
		s.recorderLock.Unlock()
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cache.ErrInvalidAddress) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, eventJSON(ev))
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	state := stateJSON(sess.engine)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"cache_state": state,
	})
}

func (s *Server) resetCache(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	sess.engine.Reset()
	state := stateJSON(sess.engine)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"cache_state": state,
	})
}

func (s *Server) deleteCache(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	s.sessionsLock.Lock()
	delete(s.sessions, sess.id)
	s.sessionsLock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) findSessionOr404(
	w http.ResponseWriter,
	r *http.Request,
) *session {
	id := mux.Vars(r)["id"]

	s.sessionsLock.RLock()
	sess := s.sessions[id]
	s.sessionsLock.RUnlock()

	if sess == nil {
		writeError(w, http.StatusNotFound,
			"no active cache with id "+id+"; create a cache first")
	}

	return sess
}

func (s *Server) apiIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "cachevis",
		"endpoints": []string{
			"POST /api/caches",
			"GET /api/caches/{id}",
			"DELETE /api/caches/{id}",
			"POST /api/caches/{id}/access",
			"POST /api/caches/{id}/reset",
			"GET /api/resource",
			"GET /api/profile",
		},
	})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, http.StatusOK, prof)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	dieOnErr(err)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
