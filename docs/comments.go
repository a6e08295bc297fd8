package docs

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kbukum/wirekit/component"
	"github.com/kbukum/wirekit/logger"
)

// ErrNotReady is returned while the comment index is still being built.
var ErrNotReady = errors.New("docs: method comments not indexed yet")

const paramTag = "@param"

// MethodComment is the doc comment of one method. Params holds the
// "@param name text" lines; Text holds every other non-blank line.
type MethodComment struct {
	Receiver string
	Method   string
	Text     string
	Params   map[string]string
}

// CommentSource looks up method comments by receiver type and method name.
type CommentSource interface {
	Comment(receiver, method string) (MethodComment, error)
}

// CommentIndex collects method doc comments from the Go sources under its
// roots. Files are parsed one at a time in lexical order by a single
// goroutine started with the component; lookups fail with ErrNotReady until
// the pass completes.
type CommentIndex struct {
	roots    []string
	log      *logger.Logger
	ready    atomic.Bool
	mu       sync.RWMutex
	comments map[string]MethodComment
	skipped  int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCommentIndex creates an index over roots. A nil logger falls back to
// the global one.
func NewCommentIndex(roots []string, log *logger.Logger) *CommentIndex {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &CommentIndex{
		roots:    append([]string(nil), roots...),
		log:      log.WithComponent("docs"),
		comments: make(map[string]MethodComment),
	}
}

func (x *CommentIndex) Name() string { return "docs-comments" }

// Start launches the indexing pass and returns immediately.
func (x *CommentIndex) Start(ctx context.Context) error {
	if x.done != nil {
		return nil
	}
	ctx, x.cancel = context.WithCancel(context.WithoutCancel(ctx))
	x.done = make(chan struct{})
	go x.build(ctx)
	return nil
}

// Stop cancels an unfinished pass and waits for it to exit.
func (x *CommentIndex) Stop(ctx context.Context) error {
	if x.done == nil {
		return nil
	}
	x.cancel()
	select {
	case <-x.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health is degraded until the pass completes.
func (x *CommentIndex) Health(_ context.Context) component.Health {
	h := component.Health{Name: x.Name(), Status: component.StatusHealthy}
	if !x.ready.Load() {
		h.Status = component.StatusDegraded
		h.Message = "indexing method comments"
	}
	return h
}

func (x *CommentIndex) Describe() component.Description {
	return component.Description{
		Name:    "Doc comments",
		Type:    "docs",
		Details: strings.Join(x.roots, ", "),
	}
}

// Ready reports whether the pass has completed.
func (x *CommentIndex) Ready() bool { return x.ready.Load() }

// Wait blocks until the pass completes or ctx is done.
func (x *CommentIndex) Wait(ctx context.Context) error {
	if x.done == nil {
		return ErrNotReady
	}
	select {
	case <-x.done:
		if !x.ready.Load() {
			return ErrNotReady
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Comment returns the comment of receiver.method, or a zero MethodComment
// when the method has none.
func (x *CommentIndex) Comment(receiver, method string) (MethodComment, error) {
	if !x.ready.Load() {
		return MethodComment{}, ErrNotReady
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.comments[key(receiver, method)], nil
}

// Len is the number of indexed comments.
func (x *CommentIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.comments)
}

func (x *CommentIndex) build(ctx context.Context) {
	defer close(x.done)

	fset := token.NewFileSet()
	for _, root := range x.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
				x.indexFile(fset, path)
			}
			return nil
		})
		if ctx.Err() != nil {
			x.log.Debug("Comment indexing cancelled")
			return
		}
		if err != nil {
			x.log.Warn("Failed to scan documentation root", map[string]interface{}{
				"root":  root,
				"error": err.Error(),
			})
		}
	}

	x.ready.Store(true)
	x.log.Info("Method comments indexed", map[string]interface{}{
		"comments": x.Len(),
		"skipped":  x.skipped,
	})
}

func (x *CommentIndex) indexFile(fset *token.FileSet, path string) {
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		x.skipped++
		x.log.Warn("Skipping unparsable source file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || fn.Doc == nil || len(fn.Recv.List) == 0 {
			continue
		}
		receiver := receiverName(fn.Recv.List[0].Type)
		if receiver == "" {
			continue
		}
		c := parseComment(fn.Doc.Text())
		c.Receiver, c.Method = receiver, fn.Name.Name

		x.mu.Lock()
		x.comments[key(receiver, fn.Name.Name)] = c
		x.mu.Unlock()
	}
}

// parseComment trims every line, drops blank ones and splits off @param lines.
func parseComment(raw string) MethodComment {
	c := MethodComment{Params: make(map[string]string)}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, paramTag); ok {
			name, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
			if name != "" {
				c.Params[name] = strings.TrimSpace(text)
				continue
			}
		}
		lines = append(lines, line)
	}
	c.Text = strings.Join(lines, "\n")
	return c
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func key(receiver, method string) string {
	return receiver + "." + method
}
