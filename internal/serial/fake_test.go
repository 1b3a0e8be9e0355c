package serial

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// fakePort 内存串口：写入的数据记录在 written，读取从 rx 取
type fakePort struct {
	name     string
	mu       sync.Mutex
	rx       bytes.Buffer
	written  bytes.Buffer
	opened   bool
	closed   bool
	openErr  error
	writeErr error
}

func (f *fakePort) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	if f.rx.Len() == 0 {
		f.mu.Unlock()
		// 模拟读超时
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	defer f.mu.Unlock()
	return f.rx.Read(p)
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakePort) Name() string { return f.name }

func (f *fakePort) feed(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx.Write(b)
}

var errBoom = errors.New("boom")
