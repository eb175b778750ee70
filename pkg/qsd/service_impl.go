package qsd

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository  Repository
	pageCache   Cache
	inlineCache Cache
	renderer    Renderer
	eventSink   EventSink
	hooks       *Hooks
	logger      *slog.Logger
	now         func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithPageCache sets the cache for full-page renderings, keyed by URL
func WithPageCache(c Cache) Option {
	return func(s *service) {
		s.pageCache = c
	}
}

// WithInlineCache sets the cache for inline renderings, keyed by lookup key
func WithInlineCache(c Cache) Option {
	return func(s *service) {
		s.inlineCache = c
	}
}

// WithRenderer sets the content renderer
func WithRenderer(r Renderer) Option {
	return func(s *service) {
		s.renderer = r
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithHooks sets the lifecycle hooks
func WithHooks(h *Hooks) Option {
	return func(s *service) {
		s.hooks = h
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		s.logger = l
	}
}

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.pageCache == nil {
		s.pageCache = NewNoopCache()
	}
	if s.inlineCache == nil {
		s.inlineCache = NewNoopCache()
	}
	if s.renderer == nil {
		s.renderer = NewMarkdownRenderer()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s, nil
}

// Record operations

func (s *service) CreateRecord(ctx context.Context, req CreateRecordRequest) (*Record, error) {
	now := s.now()
	record := &Record{
		ID:            uuid.New(),
		URL:           NormalizeURL(req.URL),
		Name:          strings.TrimSpace(req.Name),
		Title:         req.Title,
		Description:   req.Description,
		Keywords:      req.Keywords,
		Content:       req.Content,
		AuthorID:      req.AuthorID,
		NavCategoryID: req.NavCategoryID,
		Disabled:      req.Disabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.prepare(ctx, record); err != nil {
		return nil, s.fail(ctx, "create", record.ID, err)
	}

	if err := s.repository.CreateRecord(ctx, record); err != nil {
		return nil, s.fail(ctx, "create", record.ID, err)
	}

	// A fill that started before the record existed must not survive it.
	if err := s.invalidate(ctx, nil, record); err != nil {
		return nil, s.fail(ctx, "create", record.ID, err)
	}

	if err := s.hooks.executeAfterSave(ctx, record, true); err != nil {
		s.logger.WarnContext(ctx, "AfterSave hook failed", "record_id", record.ID, "error", err)
	}
	if err := s.eventSink.RecordCreated(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "created", "record_id", record.ID, "error", err)
	}

	return record, nil
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repository.GetRecord(ctx, id)
}

func (s *service) GetRecordByURL(ctx context.Context, url string) (*Record, error) {
	return s.repository.GetRecordByURL(ctx, NormalizeURL(url))
}

func (s *service) UpdateRecord(ctx context.Context, req UpdateRecordRequest) (*Record, error) {
	previous, err := s.repository.GetRecord(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, "update", req.ID, err)
	}

	record := &Record{
		ID:            previous.ID,
		URL:           NormalizeURL(req.URL),
		Name:          strings.TrimSpace(req.Name),
		Title:         req.Title,
		Description:   req.Description,
		Keywords:      req.Keywords,
		Content:       req.Content,
		AuthorID:      req.AuthorID,
		NavCategoryID: req.NavCategoryID,
		Disabled:      req.Disabled,
		CreatedAt:     previous.CreatedAt,
		UpdatedAt:     s.now(),
	}

	if err := s.prepare(ctx, record); err != nil {
		return nil, s.fail(ctx, "update", record.ID, err)
	}

	if err := s.repository.UpdateRecord(ctx, record); err != nil {
		return nil, s.fail(ctx, "update", record.ID, err)
	}

	if err := s.invalidate(ctx, previous, record); err != nil {
		return nil, s.fail(ctx, "update", record.ID, err)
	}

	if err := s.hooks.executeAfterSave(ctx, record, false); err != nil {
		s.logger.WarnContext(ctx, "AfterSave hook failed", "record_id", record.ID, "error", err)
	}
	if err := s.eventSink.RecordUpdated(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "updated", "record_id", record.ID, "error", err)
	}

	return record, nil
}

func (s *service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	previous, err := s.repository.GetRecord(ctx, id)
	if err != nil {
		return s.fail(ctx, "delete", id, err)
	}

	if err := s.repository.DeleteRecord(ctx, id); err != nil {
		return s.fail(ctx, "delete", id, err)
	}

	if err := s.invalidate(ctx, previous, nil); err != nil {
		return s.fail(ctx, "delete", id, err)
	}

	if err := s.hooks.executeAfterDelete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "AfterDelete hook failed", "record_id", id, "error", err)
	}
	if err := s.eventSink.RecordDeleted(ctx, previous); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "deleted", "record_id", id, "error", err)
	}

	return nil
}

func (s *service) ListRecords(ctx context.Context, req ListRecordsRequest) ([]*Record, error) {
	req.URLPrefix = NormalizeURL(req.URLPrefix)
	return s.repository.ListRecords(ctx, req)
}

// Read path

func (s *service) ResolvePage(ctx context.Context, url string) (*Page, error) {
	url = NormalizeURL(url)
	if url == "" {
		return nil, ErrRecordNotFound
	}

	if page, ok := s.cached(ctx, s.pageCache, url); ok {
		return &page, nil
	}

	gen, snapOK := s.snapshot(ctx, s.pageCache, url)

	record, err := s.repository.GetRecordByURL(ctx, url)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("resolve page %s: %w", url, err)
	}
	if record.Disabled {
		return nil, ErrRecordNotFound
	}

	page, err := s.buildPage(ctx, record)
	if err != nil {
		return nil, err
	}

	if snapOK {
		s.fill(ctx, s.pageCache, url, *page, gen)
	}
	return page, nil
}

func (s *service) RenderInline(ctx context.Context, key string) (template.HTML, error) {
	name := strings.TrimSpace(key)
	if name == "" {
		return "", nil
	}
	nameKey, urlKey := inlineNameKey(name), inlineURLKey(NormalizeURL(name))

	if page, ok := s.cached(ctx, s.inlineCache, nameKey); ok {
		return page.HTML, nil
	}
	// A url entry is only filled while no record carries name, and creating
	// one drops it (see invalidate).
	if urlKey != "" {
		if page, ok := s.cached(ctx, s.inlineCache, urlKey); ok {
			return page.HTML, nil
		}
	}

	nameGen, nameOK := s.snapshot(ctx, s.inlineCache, nameKey)
	urlGen, urlOK := uint64(0), false
	if urlKey != "" {
		urlGen, urlOK = s.snapshot(ctx, s.inlineCache, urlKey)
	}

	record, byName, err := s.lookupInline(ctx, name)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("render inline %s: %w", name, err)
	}

	page, err := s.buildPage(ctx, record)
	if err != nil {
		return "", err
	}

	switch {
	case byName && nameOK:
		s.fill(ctx, s.inlineCache, nameKey, *page, nameGen)
	case !byName && urlOK:
		s.fill(ctx, s.inlineCache, urlKey, *page, urlGen)
	}
	return page.HTML, nil
}

func (s *service) RenderContent(content string) (template.HTML, error) {
	return s.renderer.Render(content)
}

// lookupInline finds a record by its exact name, falling back to an enabled
// record at the normalised URL. byName reports which lookup matched.
func (s *service) lookupInline(ctx context.Context, name string) (record *Record, byName bool, err error) {
	record, err = s.repository.GetRecordByName(ctx, name)
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, false, err
	}

	url := NormalizeURL(name)
	if url == "" {
		return nil, false, ErrRecordNotFound
	}
	record, err = s.repository.GetRecordByURL(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if record.Disabled {
		return nil, false, ErrRecordNotFound
	}
	return record, false, nil
}

func inlineNameKey(name string) string { return "name:" + name }

func inlineURLKey(url string) string {
	if url == "" {
		return ""
	}
	return "url:" + url
}

// Nav category operations

func (s *service) CreateNavCategory(ctx context.Context, req CreateNavCategoryRequest) (*NavCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	category := &NavCategory{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
	}
	if err := s.repository.CreateNavCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create nav category %s: %w", name, err)
	}
	return category, nil
}

func (s *service) GetNavCategory(ctx context.Context, id uuid.UUID) (*NavCategory, error) {
	return s.repository.GetNavCategory(ctx, id)
}

// DefaultNavCategory returns the "default" category, creating it on first use.
func (s *service) DefaultNavCategory(ctx context.Context) (*NavCategory, error) {
	category, err := s.repository.GetNavCategoryByName(ctx, DefaultNavCategoryName)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrNavCategoryNotFound) {
		return nil, err
	}
	return s.CreateNavCategory(ctx, CreateNavCategoryRequest{Name: DefaultNavCategoryName})
}

func (s *service) ListNavCategories(ctx context.Context) ([]*NavCategory, error) {
	return s.repository.ListNavCategories(ctx)
}

// Helpers

// prepare validates the record, resolves its category and checks its author,
// then runs BeforeSave hooks.
func (s *service) prepare(ctx context.Context, record *Record) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	if record.NavCategoryID == uuid.Nil {
		category, err := s.DefaultNavCategory(ctx)
		if err != nil {
			return fmt.Errorf("default nav category: %w", err)
		}
		record.NavCategoryID = category.ID
	} else if _, err := s.repository.GetNavCategory(ctx, record.NavCategoryID); err != nil {
		return err
	}

	if record.AuthorID == uuid.Nil {
		return &ValidationError{Field: "author", Message: "is required"}
	}
	if _, err := s.repository.GetUser(ctx, record.AuthorID); err != nil {
		return err
	}

	return s.hooks.executeBeforeSave(ctx, record)
}

func (s *service) buildPage(ctx context.Context, record *Record) (*Page, error) {
	html, err := s.renderer.Render(record.Content)
	if err != nil {
		return nil, &RecordError{RecordID: record.ID, Op: "render", Err: err}
	}

	page := &Page{
		RecordID:    record.ID,
		URL:         record.URL,
		Name:        record.Name,
		Title:       record.Title,
		Description: record.Description,
		Keywords:    record.Keywords,
		HTML:        html,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.NavCategoryID != uuid.Nil {
		if category, err := s.repository.GetNavCategory(ctx, record.NavCategoryID); err == nil {
			page.NavCategory = category.Name
		}
	}
	return page, nil
}

// invalidate drops every cache entry that could hold a rendering of before or after.
func (s *service) invalidate(ctx context.Context, before, after *Record) error {
	var pageKeys, inlineKeys []string
	for _, r := range []*Record{before, after} {
		if r == nil {
			continue
		}
		pageKeys = appendKey(pageKeys, r.URL)
		if r.Name != "" {
			inlineKeys = appendKey(inlineKeys, inlineNameKey(r.Name))
			// A url entry for the same key would now be shadowed by name.
			inlineKeys = appendKey(inlineKeys, inlineURLKey(NormalizeURL(r.Name)))
		}
		inlineKeys = appendKey(inlineKeys, inlineURLKey(r.URL))
	}

	if err := s.pageCache.Invalidate(ctx, pageKeys...); err != nil {
		return fmt.Errorf("invalidate page cache: %w", err)
	}
	if err := s.inlineCache.Invalidate(ctx, inlineKeys...); err != nil {
		return fmt.Errorf("invalidate inline cache: %w", err)
	}
	return nil
}

func appendKey(keys []string, key string) []string {
	if key == "" {
		return keys
	}
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

func (s *service) cached(ctx context.Context, c Cache, key string) (Page, bool) {
	page, ok, err := c.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Cache get failed", "key", key, "error", err)
		return Page{}, false
	}
	return page, ok
}

func (s *service) snapshot(ctx context.Context, c Cache, key string) (uint64, bool) {
	gen, err := c.Snapshot(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Cache snapshot failed", "key", key, "error", err)
		return 0, false
	}
	return gen, true
}

func (s *service) fill(ctx context.Context, c Cache, key string, page Page, gen uint64) {
	if err := c.SetWithGen(ctx, key, page, gen); err != nil {
		s.logger.WarnContext(ctx, "Cache set failed", "key", key, "error", err)
	}
}

// fail wraps err as a RecordError and notifies error hooks. Validation and
// lookup errors keep their identity through Unwrap.
func (s *service) fail(ctx context.Context, op string, id uuid.UUID, err error) error {
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		err = &RecordError{RecordID: id, Op: op, Err: err}
	}
	s.hooks.executeOnError(ctx, op, err)
	return err
}
