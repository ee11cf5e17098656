package jsonstream

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/Tylerbryy/stream-schema/jsonval"
	"github.com/Tylerbryy/stream-schema/schema"
)

// Sentinel errors returned by the parser.
var (
	// ErrSyntax indicates malformed input in strict mode.
	ErrSyntax = errors.New("syntax error")
	// ErrDepthExceeded indicates the container nesting ceiling was hit.
	// It is fatal in both strict and lenient mode.
	ErrDepthExceeded = errors.New("depth exceeded")
	// ErrIncomplete indicates the document root is not yet complete.
	ErrIncomplete = errors.New("incomplete document")
)

// State identifies what the parser will accept next. The state variable is
// the sole authority on what the next token may be.
type State int

const (
	// StateInitial awaits the document root.
	StateInitial State = iota
	// StateExpectingKey awaits an object key or `}`.
	StateExpectingKey
	// StateExpectingColon awaits the `:` after a key.
	StateExpectingColon
	// StateExpectingValue awaits an object member value.
	StateExpectingValue
	// StateInArray awaits an array element or `]`.
	StateInArray
	// StateExpectingCommaOrEnd awaits `,`, `}`, or `]`.
	StateExpectingCommaOrEnd
	// StateComplete means the root value is fully parsed.
	StateComplete
	// StateError means a fatal error occurred.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateExpectingKey:
		return "expecting-key"
	case StateExpectingColon:
		return "expecting-colon"
	case StateExpectingValue:
		return "expecting-value"
	case StateInArray:
		return "in-array"
	case StateExpectingCommaOrEnd:
		return "expecting-comma-or-end"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	}

	return "unknown"
}

// ParseResult is the snapshot returned by every [Parser.Feed] call.
type ParseResult struct {
	// Data is the partial or final root value. For an open root container
	// this is the growing container; for a scalar root it is nil until
	// the document completes.
	Data any `json:"data"`
	// CompletedFields lists the dot-joined paths whose values are fully
	// parsed, in completion order. The root is the empty string.
	CompletedFields []string `json:"completedFields"`
	// PendingFields lists the dot-joined paths that are started but not
	// yet complete.
	PendingFields []string `json:"pendingFields"`
	// Errors holds every validation error produced so far.
	Errors []*schema.ValidationError `json:"errors"`
	// Depth is the current container stack size.
	Depth int `json:"depth"`
	// BytesProcessed counts the cumulative characters fed.
	BytesProcessed int `json:"bytesProcessed"`
	// Complete reports whether the root value is fully parsed.
	Complete bool `json:"complete"`
	// Valid reports whether no validation errors have been produced.
	Valid bool `json:"valid"`
}

// frame is one open container on the parser stack.
type frame struct {
	object *jsonval.Object
	array  *jsonval.Array
	// schema caches the sub-schema resolved for this container's path at
	// push time. Nil when no schema constrains the path.
	schema *schema.Schema
	// seen tracks the keys already assigned in an object frame.
	seen map[string]struct{}
	// path is the container path from the root.
	path []string
	// pendingKey is the key awaiting its value in an object frame.
	pendingKey    string
	hasPendingKey bool
	// arrayIndex is the next index to assign in an array frame.
	arrayIndex int
	kind       string
}

// value returns the growing container value.
func (f *frame) value() any {
	if f.kind == jsonval.KindObject {
		return f.object
	}

	return f.array
}

// Parser consumes a character stream in arbitrarily small chunks, builds
// the value tree, tracks path-keyed completion state, and validates against
// an optional schema as values complete.
//
// A Parser is not safe for concurrent feeds; callers serialize. Create
// instances with [New].
type Parser struct {
	tokenizer *Tokenizer
	validator *schema.Validator
	events    Events

	stack     []*frame
	state     State
	root      any
	completed map[string]struct{}
	pending   map[string]struct{}

	completedOrder []string
	errs           []*schema.ValidationError
	// seenErrors dedupes identical findings: a field validated at
	// assignment is validated again when its container closes.
	seenErrors map[string]struct{}
	fatal      error
	bytes      int

	// partialPath is the pending entry contributed by the tokenizer's
	// current partial classification, removed when superseded.
	partialPath    string
	hasPartialPath bool

	// resyncing is set after a lenient structural error; non-structural
	// tokens are skipped until a structural token arrives.
	resyncing bool

	// afterComma is set while the last consumed token was a comma, so a
	// close bracket can distinguish a trailing comma from an empty
	// container.
	afterComma bool

	trailingCommas bool
	unquotedKeys   bool
	singleQuotes   bool
	lenient        bool
	maxDepth       int
}

// New creates a [Parser] with the given options.
func New(opts ...Option) *Parser {
	cfg := settings{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&cfg)
	}

	trailingCommas, unquotedKeys, singleQuotes := cfg.resolve()

	p := &Parser{
		events:         cfg.events,
		trailingCommas: trailingCommas,
		unquotedKeys:   unquotedKeys,
		singleQuotes:   singleQuotes,
		lenient:        cfg.llmMode,
		maxDepth:       cfg.maxDepth,
		completed:      make(map[string]struct{}),
		pending:        make(map[string]struct{}),
		seenErrors:     make(map[string]struct{}),
	}

	if cfg.schema != nil {
		var vopts []schema.ValidatorOption
		if cfg.earlyReject {
			vopts = append(vopts, schema.WithEarlyReject(true))
		}

		p.validator = schema.NewValidator(cfg.schema, vopts...)
	}

	p.tokenizer = NewTokenizer(
		WithTokenizerSingleQuotes(singleQuotes),
		WithTokenizerUnquotedKeys(unquotedKeys),
		WithSkipInvalid(cfg.llmMode),
	)

	return p
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// IsComplete reports whether the document root is fully parsed.
func (p *Parser) IsComplete() bool {
	return p.state == StateComplete
}

// Result returns the parsed root value. It fails with [ErrIncomplete]
// until the parser reaches [StateComplete].
func (p *Parser) Result() (any, error) {
	if p.state != StateComplete {
		return nil, fmt.Errorf("%w: parser state is %s", ErrIncomplete, p.state)
	}

	return p.root, nil
}

// Reset restores the parser to [StateInitial] with an empty stack and empty
// completion sets. The schema is retained.
func (p *Parser) Reset() {
	p.tokenizer.Reset()

	p.stack = nil
	p.state = StateInitial
	p.root = nil
	p.completed = make(map[string]struct{})
	p.pending = make(map[string]struct{})
	p.completedOrder = nil
	p.errs = nil
	p.seenErrors = make(map[string]struct{})
	p.fatal = nil
	p.bytes = 0
	p.partialPath = ""
	p.hasPartialPath = false
	p.resyncing = false
}

// Feed advances the parser with one chunk and returns a snapshot of the
// growing document. In strict mode the first syntax error is fatal: the
// parser transitions to [StateError] and Feed returns the error. Exceeding
// the depth ceiling is fatal in both modes.
func (p *Parser) Feed(chunk string) (*ParseResult, error) {
	if p.fatal != nil {
		return nil, p.fatal
	}

	p.bytes += len(chunk)

	p.tokenizer.SetExpectingKey(p.state == StateExpectingKey)

	for _, tok := range p.tokenizer.Feed(chunk) {
		err := p.processToken(tok)
		if err != nil {
			p.state = StateError
			p.fatal = err

			p.emitError(err)

			return nil, err
		}
	}

	p.refreshPartialPending()

	return p.snapshot(), nil
}

// snapshot materializes the current [ParseResult].
func (p *Parser) snapshot() *ParseResult {
	pendingFields := make([]string, 0, len(p.pending))
	for path := range p.pending {
		pendingFields = append(pendingFields, path)
	}

	slices.Sort(pendingFields)

	var data any

	switch {
	case p.state == StateComplete:
		data = p.root
	case len(p.stack) > 0:
		data = p.stack[0].value()
	}

	return &ParseResult{
		Complete:        p.state == StateComplete,
		Valid:           len(p.errs) == 0,
		Data:            data,
		CompletedFields: slices.Clone(p.completedOrder),
		PendingFields:   pendingFields,
		Errors:          slices.Clone(p.errs),
		Depth:           len(p.stack),
		BytesProcessed:  p.bytes,
	}
}

// processToken advances the state machine by one token. A non-nil return
// is fatal.
func (p *Parser) processToken(tok Token) error {
	if tok.Kind == TokenError {
		if p.lenient {
			p.recordSyntax(tok, "unrecognized input")

			return nil
		}

		return fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, tok.Raw, tok.Pos)
	}

	if p.resyncing {
		if !isStructural(tok.Kind) {
			slog.Debug("resync skipping token", slog.String("kind", tok.Kind.String()))

			return nil
		}

		p.resyncing = false
	}

	var err error

	switch p.state {
	case StateInitial:
		err = p.processInitial(tok)
	case StateExpectingKey:
		err = p.processExpectingKey(tok)
	case StateExpectingColon:
		err = p.processExpectingColon(tok)
	case StateExpectingValue:
		err = p.processExpectingValue(tok)
	case StateInArray:
		err = p.processInArray(tok)
	case StateExpectingCommaOrEnd:
		err = p.processExpectingCommaOrEnd(tok)
	case StateComplete:
		err = p.processAfterComplete(tok)
	case StateError:
		err = p.fatal
	}

	p.afterComma = tok.Kind == TokenComma

	return err
}

func (p *Parser) processInitial(tok Token) error {
	switch tok.Kind {
	case TokenObjectStart:
		return p.pushFrame(jsonval.KindObject)
	case TokenArrayStart:
		return p.pushFrame(jsonval.KindArray)
	case TokenString, TokenKey, TokenNumber, TokenBoolean, TokenNull:
		p.root = tok.Value
		p.state = StateComplete

		p.markCompleted(nil)
		p.validateAt(tok.Value, nil)
		p.emitComplete()

		return nil
	default:
		return p.unexpected(tok)
	}
}

func (p *Parser) processExpectingKey(tok Token) error {
	top := p.top()

	switch tok.Kind {
	case TokenKey, TokenString:
		key, _ := tok.Value.(string)
		top.pendingKey = key
		top.hasPendingKey = true
		p.state = StateExpectingColon

		p.markPending(childPath(top.path, key))

		return nil
	case TokenObjectEnd:
		if p.afterComma && !p.lenient && !p.trailingCommas {
			return p.unexpected(tok)
		}

		return p.popFrame(jsonval.KindObject)
	case TokenComma:
		if p.lenient {
			// Stray comma between keys.
			return nil
		}

		return p.unexpected(tok)
	default:
		return p.unexpected(tok)
	}
}

func (p *Parser) processExpectingColon(tok Token) error {
	if tok.Kind == TokenColon {
		p.state = StateExpectingValue

		return nil
	}

	if p.lenient {
		// Missing colon: reprocess the token as the member value.
		p.state = StateExpectingValue

		return p.processToken(tok)
	}

	return p.unexpected(tok)
}

func (p *Parser) processExpectingValue(tok Token) error {
	top := p.top()

	switch tok.Kind {
	case TokenObjectStart:
		return p.pushFrame(jsonval.KindObject)
	case TokenArrayStart:
		return p.pushFrame(jsonval.KindArray)
	case TokenString, TokenKey, TokenNumber, TokenBoolean, TokenNull:
		p.assignMember(top, tok.Value)

		return nil
	case TokenObjectEnd:
		if p.lenient {
			// Missing member value: abandon the pending key and close.
			p.dropPendingKey(top)

			return p.popFrame(jsonval.KindObject)
		}

		return p.unexpected(tok)
	default:
		// A stray `]` lands here too: ExpectingValue only occurs inside
		// an object frame, so there is no array to close.
		return p.unexpected(tok)
	}
}

func (p *Parser) processInArray(tok Token) error {
	top := p.top()

	switch tok.Kind {
	case TokenArrayEnd:
		if p.afterComma && !p.lenient && !p.trailingCommas {
			return p.unexpected(tok)
		}

		return p.popFrame(jsonval.KindArray)
	case TokenObjectStart:
		return p.pushFrame(jsonval.KindObject)
	case TokenArrayStart:
		return p.pushFrame(jsonval.KindArray)
	case TokenString, TokenKey, TokenNumber, TokenBoolean, TokenNull:
		p.appendElement(top, tok.Value)

		return nil
	case TokenComma:
		if p.lenient {
			// Stray comma between elements.
			return nil
		}

		return p.unexpected(tok)
	default:
		return p.unexpected(tok)
	}
}

func (p *Parser) processExpectingCommaOrEnd(tok Token) error {
	top := p.top()

	switch tok.Kind {
	case TokenComma:
		if top.kind == jsonval.KindObject {
			p.state = StateExpectingKey
		} else {
			p.state = StateInArray
		}

		return nil
	case TokenObjectEnd:
		if top.kind != jsonval.KindObject {
			if !p.lenient {
				return p.unexpected(tok)
			}

			p.recordSyntax(tok, "mismatched } closing an array")
		}

		return p.popFrame(top.kind)
	case TokenArrayEnd:
		if top.kind != jsonval.KindArray {
			if !p.lenient {
				return p.unexpected(tok)
			}

			p.recordSyntax(tok, "mismatched ] closing an object")
		}

		return p.popFrame(top.kind)
	default:
		if !p.lenient {
			return p.unexpected(tok)
		}

		// Missing comma: re-dispatch as if one had been consumed.
		if top.kind == jsonval.KindObject {
			p.state = StateExpectingKey
		} else {
			p.state = StateInArray
		}

		return p.processToken(tok)
	}
}

func (p *Parser) processAfterComplete(tok Token) error {
	if p.lenient {
		p.recordSyntax(tok, "content after document end")

		return nil
	}

	return fmt.Errorf("%w: unexpected %s after document end", ErrSyntax, tok.Kind)
}

// assignMember assigns a scalar to the pending key of an object frame.
func (p *Parser) assignMember(top *frame, value any) {
	key := top.pendingKey
	path := childPath(top.path, key)

	top.object.Set(key, value)
	top.seen[key] = struct{}{}
	top.hasPendingKey = false
	p.state = StateExpectingCommaOrEnd

	p.markCompleted(path)
	p.validateAt(value, path)
	p.emitCompleteField(key, value, top.path)
}

// appendElement appends a scalar to an array frame.
func (p *Parser) appendElement(top *frame, value any) {
	path := childPath(top.path, strconv.Itoa(top.arrayIndex))

	top.array.Append(value)
	top.arrayIndex++
	p.state = StateExpectingCommaOrEnd

	p.markCompleted(path)
	p.validateAt(value, path)
}

// pushFrame opens a new container at the current target path.
func (p *Parser) pushFrame(kind string) error {
	if len(p.stack)+1 > p.maxDepth {
		return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrDepthExceeded, len(p.stack)+1, p.maxDepth)
	}

	path := p.targetPath()

	f := &frame{
		kind: kind,
		path: path,
	}

	if kind == jsonval.KindObject {
		f.object = jsonval.NewObject()
		f.seen = make(map[string]struct{})
		p.state = StateExpectingKey
	} else {
		f.array = jsonval.NewArray()
		p.state = StateInArray
	}

	if p.validator != nil {
		f.schema = p.validator.SchemaAt(path)

		// Early type rejection: report a mismatch as soon as the
		// container opens rather than at its close.
		if !p.validator.CanBeType(kind, path) {
			p.addError(&schema.ValidationError{
				Path:    slices.Clone(path),
				Message: fmt.Sprintf("%s is not an allowed type here", kind),
				Keyword: "type",
				Schema:  f.schema,
			})
		}
	}

	p.stack = append(p.stack, f)

	p.markPending(path)

	return nil
}

// popFrame closes the top container, validates it, and assigns it to its
// parent or the root.
func (p *Parser) popFrame(kind string) error {
	top := p.top()
	if top == nil {
		return fmt.Errorf("%w: unexpected close with empty stack", ErrSyntax)
	}

	if !p.lenient && top.kind != kind {
		return fmt.Errorf("%w: mismatched close for %s container", ErrSyntax, top.kind)
	}

	p.stack = p.stack[:len(p.stack)-1]

	value := top.value()

	p.markCompleted(top.path)
	p.validateAt(value, top.path)
	p.emitPartialObject(value, top.path)

	parent := p.top()
	if parent == nil {
		p.root = value
		p.state = StateComplete

		p.emitComplete()

		return nil
	}

	if parent.kind == jsonval.KindObject {
		key := parent.pendingKey
		parent.object.Set(key, value)
		parent.seen[key] = struct{}{}
		parent.hasPendingKey = false

		p.emitCompleteField(key, value, parent.path)
	} else {
		parent.array.Append(value)
		parent.arrayIndex++
	}

	p.state = StateExpectingCommaOrEnd

	return nil
}

// dropPendingKey abandons a key that never received a value, removing its
// pending entry.
func (p *Parser) dropPendingKey(top *frame) {
	if top == nil || !top.hasPendingKey {
		return
	}

	path := joinPath(childPath(top.path, top.pendingKey))
	if _, done := p.completed[path]; !done {
		delete(p.pending, path)
	}

	top.hasPendingKey = false
}

// top returns the innermost open frame, or nil.
func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}

	return p.stack[len(p.stack)-1]
}

// containerPath returns the path of the innermost open container.
func (p *Parser) containerPath() []string {
	top := p.top()
	if top == nil {
		return nil
	}

	return top.path
}

// targetPath returns the path of the value currently being constructed:
// the container path extended by the pending key in an object, or by the
// next index in an array.
func (p *Parser) targetPath() []string {
	top := p.top()
	if top == nil {
		return nil
	}

	if top.kind == jsonval.KindObject {
		if top.hasPendingKey {
			return childPath(top.path, top.pendingKey)
		}

		return top.path
	}

	return childPath(top.path, strconv.Itoa(top.arrayIndex))
}

// refreshPartialPending folds the tokenizer's current partial
// classification into the pending set, replacing the entry from the
// previous feed.
func (p *Parser) refreshPartialPending() {
	if p.hasPartialPath {
		// Keep the entry when an open container or a read key now holds
		// the same path.
		_, done := p.completed[p.partialPath]
		held := false

		for _, f := range p.stack {
			held = held || joinPath(f.path) == p.partialPath ||
				(f.hasPendingKey && joinPath(childPath(f.path, f.pendingKey)) == p.partialPath)
		}

		if !done && !held {
			delete(p.pending, p.partialPath)
		}

		p.hasPartialPath = false
	}

	tok, ok := p.tokenizer.PartialToken()
	if !ok {
		return
	}

	path, ok := p.partialTargetPath(tok)
	if !ok {
		return
	}

	key := joinPath(path)
	if _, done := p.completed[key]; done {
		return
	}

	p.pending[key] = struct{}{}
	p.partialPath = key
	p.hasPartialPath = true
}

// partialTargetPath computes the path a partial token is growing toward.
func (p *Parser) partialTargetPath(tok Token) ([]string, bool) {
	switch tok.Kind {
	case TokenPartialKey:
		if p.state != StateExpectingKey {
			return nil, false
		}

		text, _ := tok.Value.(string)

		return childPath(p.containerPath(), text), true
	case TokenPartialString, TokenPartialNumber:
		switch p.state {
		case StateInitial, StateExpectingValue, StateInArray:
			return p.targetPath(), true
		default:
			return nil, false
		}
	default:
		return nil, false
	}
}

// markPending adds a path to the pending set unless already completed.
func (p *Parser) markPending(path []string) {
	key := joinPath(path)
	if _, done := p.completed[key]; done {
		return
	}

	p.pending[key] = struct{}{}
}

// markCompleted moves a path from the pending set to the completed set.
// Once completed, a path never returns to pending.
func (p *Parser) markCompleted(path []string) {
	key := joinPath(path)
	if _, done := p.completed[key]; done {
		return
	}

	p.completed[key] = struct{}{}
	p.completedOrder = append(p.completedOrder, key)

	delete(p.pending, key)
}

// validateAt validates a completed value against the schema at path.
func (p *Parser) validateAt(value any, path []string) {
	if p.validator == nil {
		return
	}

	for _, err := range p.validator.Validate(value, path) {
		p.addError(err)
	}
}

// addError records a validation error and dispatches the event. Findings
// identical in path, keyword, and message are recorded once.
func (p *Parser) addError(err *schema.ValidationError) {
	key := joinPath(err.Path) + "\x00" + err.Keyword + "\x00" + err.Message
	if _, dup := p.seenErrors[key]; dup {
		return
	}

	p.seenErrors[key] = struct{}{}
	p.errs = append(p.errs, err)

	if p.events.ValidationError != nil {
		p.events.ValidationError(err)
	}
}

// recordSyntax records a lenient-mode syntax defect as a synthetic
// validation error with the keyword `syntax`. It does not start a resync;
// [Parser.unexpected] sets that up itself.
func (p *Parser) recordSyntax(tok Token, message string) {
	slog.Warn("recovering from syntax error",
		slog.String("token", tok.Kind.String()),
		slog.Int("position", tok.Pos),
		slog.String("detail", message),
	)

	p.addError(&schema.ValidationError{
		Path:    slices.Clone(p.targetPath()),
		Message: fmt.Sprintf("%s (%s at position %d)", message, tok.Kind, tok.Pos),
		Keyword: "syntax",
		Value:   tok.Raw,
	})
}

// unexpected handles a token the transition table does not admit: fatal in
// strict mode, recorded with forward resync in lenient mode.
func (p *Parser) unexpected(tok Token) error {
	if p.lenient {
		p.recordSyntax(tok, fmt.Sprintf("unexpected %s in state %s", tok.Kind, p.state))

		p.resyncing = true

		return nil
	}

	return fmt.Errorf("%w: unexpected %s in state %s at position %d", ErrSyntax, tok.Kind, p.state, tok.Pos)
}

func (p *Parser) emitPartialObject(value any, path []string) {
	if p.events.PartialObject != nil {
		p.events.PartialObject(value, slices.Clone(path))
	}
}

func (p *Parser) emitCompleteField(key string, value any, parentPath []string) {
	if p.events.CompleteField != nil {
		p.events.CompleteField(key, value, slices.Clone(parentPath))
	}
}

func (p *Parser) emitComplete() {
	if p.events.Complete != nil {
		p.events.Complete(p.root)
	}
}

func (p *Parser) emitError(err error) {
	if p.events.Error != nil {
		p.events.Error(err)
	}
}

// isStructural reports whether a token kind can anchor resynchronization.
func isStructural(kind TokenKind) bool {
	switch kind {
	case TokenObjectStart, TokenObjectEnd, TokenArrayStart, TokenArrayEnd:
		return true
	}

	return false
}

// childPath returns path extended by one segment without aliasing the
// parent's backing array.
func childPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)

	return append(out, seg)
}

// joinPath renders a path as its dot-joined set key. The root is the empty
// string. Key segments containing `.` are joined verbatim, mirroring the
// dot-joined surface of [ParseResult.CompletedFields].
func joinPath(path []string) string {
	return strings.Join(path, ".")
}
