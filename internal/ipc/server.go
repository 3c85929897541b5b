// Package ipc exposes the currently playing lyric line over a Unix
// domain socket so a separate GUI/status-bar process can render it
// without linking against the rest of lyricsync.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Message is the JSON payload broadcast to every connected client: the
// current line's text and how far playback has progressed through it.
type Message struct {
	Line      string  `json:"line"`
	Progress  float64 `json:"progress"`
	Source    string  `json:"source"`
	NoMusic   bool    `json:"no_music,omitempty"`
	Searching bool    `json:"searching,omitempty"`
}

type Server struct {
	socketPath      string
	listener        net.Listener
	clientConns     map[net.Conn]struct{}
	clientConnsLock sync.Mutex
	lastMessage     []byte
	lastMessageLock sync.Mutex
	lockFile        *os.File
	lockFilePath    string
}

func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		clientConns:  make(map[net.Conn]struct{}),
		lockFilePath: socketPath + ".lock",
	}
}

func (s *Server) checkAndCleanOldLock() {
	if _, err := os.Stat(s.lockFilePath); os.IsNotExist(err) {
		return
	}

	content, err := os.ReadFile(s.lockFilePath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		log.Warn().Msg("Lock file is empty, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		log.Warn().Err(err).Str("pid_str", pidStr).Msg("Invalid PID in lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	if !isProcessRunning(pid) {
		log.Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
		os.Remove(s.lockFilePath)
		return
	}

	log.Info().Int("existing_pid", pid).Msg("Another process is still running")
}

func isProcessRunning(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func (s *Server) acquireLock() error {
	s.checkAndCleanOldLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyricsync server instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := file.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	log.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		log.Info().Str("lock_file", s.lockFilePath).Msg("Released process lock")
		s.lockFile = nil
	}
}

func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	log.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")

	go s.acceptConnections()

	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			log.Error().Err(err).Msg("Failed to accept IPC connection")
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	s.clientConnsLock.Lock()
	s.clientConns[conn] = struct{}{}
	s.clientConnsLock.Unlock()

	log.Info().Msg("GUI client connected")

	s.lastMessageLock.Lock()
	last := s.lastMessage
	s.lastMessageLock.Unlock()
	if len(last) > 0 {
		if _, err := conn.Write(append(last, '\n')); err != nil {
			log.Error().Err(err).Msg("Failed to send initial message")
		}
	}

	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.clientConnsLock.Lock()
	delete(s.clientConns, conn)
	s.clientConnsLock.Unlock()
	conn.Close()
	log.Info().Msg("GUI client disconnected")
}

// Broadcast JSON-encodes msg and sends it to every connected client, and
// remembers it so the next connecting client gets caught up immediately.
func (s *Server) Broadcast(msg Message) {
	encoded, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode IPC message")
		return
	}

	s.lastMessageLock.Lock()
	s.lastMessage = encoded
	s.lastMessageLock.Unlock()

	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()

	payload := append(encoded, '\n')
	for conn := range s.clientConns {
		if _, err := conn.Write(payload); err != nil {
			log.Error().Err(err).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
}
