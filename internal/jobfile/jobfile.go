// Package jobfile reads batches of script jobs from YAML.
//
//	poolSize: 4
//	jobs:
//	  - name: greet
//	    script: echo
//	    param: {hello: world}
//	    repeat: 3
//	  - script: sha256
//	    param: {}
//	    buffers:
//	      - text: abc
//	      - base64: YWJj
//	      - file: ./data.bin
package jobfile

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kubev2v/threadpool/pkg/threadpool"
)

type File struct {
	// PoolSize overrides the configured pool size when set.
	PoolSize int     `yaml:"poolSize"`
	Jobs     []Entry `yaml:"jobs"`

	dir string
}

type Entry struct {
	Name    string   `yaml:"name"`
	Script  string   `yaml:"script"`
	Param   any      `yaml:"param"`
	Buffers []Buffer `yaml:"buffers"`
	Repeat  int      `yaml:"repeat"`
}

// Buffer is a transfer buffer. Exactly one source must be set.
type Buffer struct {
	Text   string `yaml:"text"`
	Base64 string `yaml:"base64"`
	File   string `yaml:"file"`
}

// Job is one submission expanded from an entry.
type Job struct {
	Name    string
	Request threadpool.ScriptRequest
}

// Load reads path. Buffer files are resolved relative to its folder.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.dir = filepath.Dir(path)
	return file, nil
}

func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("job file is empty")
		}
		return nil, fmt.Errorf("invalid job file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) Validate() error {
	if f.PoolSize < 0 {
		return fmt.Errorf("poolSize must not be negative, got %d", f.PoolSize)
	}
	if len(f.Jobs) == 0 {
		return errors.New("job file has no jobs")
	}
	for i, e := range f.Jobs {
		if e.Script == "" {
			return fmt.Errorf("job %d: script is required", i)
		}
		if e.Repeat < 0 {
			return fmt.Errorf("job %d: repeat must not be negative", i)
		}
		for j, b := range e.Buffers {
			if n := b.sources(); n != 1 {
				return fmt.Errorf("job %d: buffer %d must set exactly one of text, base64 or file", i, j)
			}
		}
	}
	return nil
}

// Expand turns every entry into its submissions, in file order. Each
// repetition gets its own copy of the buffers.
func (f *File) Expand() ([]Job, error) {
	var jobs []Job
	for i, e := range f.Jobs {
		param, err := encodeParam(e.Param)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}

		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", e.Script, i)
		}

		repeat := max(e.Repeat, 1)
		for n := range repeat {
			req := threadpool.ScriptRequest{Script: e.Script}
			if param != nil {
				req.Param = param
			}
			for j, b := range e.Buffers {
				data, err := b.read(f.dir)
				if err != nil {
					return nil, fmt.Errorf("job %d: buffer %d: %w", i, j, err)
				}
				req.Buffers = append(req.Buffers, threadpool.NewBuffer(data))
			}

			jobName := name
			if repeat > 1 {
				jobName = fmt.Sprintf("%s#%d", name, n+1)
			}
			jobs = append(jobs, Job{Name: jobName, Request: req})
		}
	}
	return jobs, nil
}

func (b Buffer) sources() int {
	n := 0
	for _, s := range []string{b.Text, b.Base64, b.File} {
		if s != "" {
			n++
		}
	}
	return n
}

func (b Buffer) read(dir string) ([]byte, error) {
	switch {
	case b.Text != "":
		return []byte(b.Text), nil
	case b.Base64 != "":
		return base64.StdEncoding.DecodeString(b.Base64)
	default:
		path := b.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return os.ReadFile(path)
	}
}

func encodeParam(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("param is not JSON encodable: %w", err)
	}
	return data, nil
}
