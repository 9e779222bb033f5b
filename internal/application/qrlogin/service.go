package qrlogin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/logger"
	"github.com/dvd/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ImageRenderer turns an issued code into a displayable data URI
type ImageRenderer interface {
	DataURI(code *qrlogin.QRCode) (string, error)
}

// Config holds the orchestration settings
type Config struct {
	// AttemptTTL bounds how long an issued code stays pollable
	AttemptTTL time.Duration
	// ClaimTTL is how long consumed tickets and persisted logins are remembered
	ClaimTTL time.Duration
}

// Dependencies are the collaborators of the Service
type Dependencies struct {
	Resolver qrlogin.DriverResolver
	Accounts qrlogin.AccountRepository
	Attempts qrlogin.AttemptStore
	Claims   shared.IdempotencyStore
	Images   ImageRenderer
	Metrics  *telemetry.LoginMetrics
	Logger   *zap.Logger
}

// Service drives QR logins from issue to persisted session
type Service struct {
	resolver qrlogin.DriverResolver
	accounts qrlogin.AccountRepository
	attempts qrlogin.AttemptStore
	claims   shared.IdempotencyStore
	images   ImageRenderer
	metrics  *telemetry.LoginMetrics
	logger   *zap.Logger
	config   Config
	now      func() time.Time
}

// NewService creates a new Service
func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.AttemptTTL <= 0 {
		cfg.AttemptTTL = qrlogin.DefaultAttemptTTL
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = shared.DefaultIdempotencyConfig().TTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		resolver: deps.Resolver,
		accounts: deps.Accounts,
		attempts: deps.Attempts,
		claims:   deps.Claims,
		images:   deps.Images,
		metrics:  deps.Metrics,
		logger:   log.Named("qrlogin"),
		config:   cfg,
		now:      time.Now,
	}
}

// target is what one request operates on
type target struct {
	driver    qrlogin.Driver
	attempt   *qrlogin.LoginAttempt
	accountID int64
}

func (t *target) platform() string {
	return t.driver.Kind().String()
}

// StartLogin issues a QR code and records the attempt
func (s *Service) StartLogin(ctx context.Context, req StartLoginRequest) (*StartLoginResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "start")
	defer span.End()

	platformID, productID := req.PlatformID, req.ProductID
	if req.AccountID != 0 {
		account, err := s.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return nil, err
		}
		platformID, productID = account.PlatformID, account.ProductID
	}

	var (
		driver qrlogin.Driver
		err    error
	)
	switch {
	case platformID != 0 || productID != 0:
		driver, err = s.resolver.ResolveByIDs(ctx, platformID, productID)
	case req.PlatformName != "" || req.ProductName != "":
		driver, err = s.resolver.Resolve(req.PlatformName, req.ProductName)
	default:
		err = shared.ErrInvalidInput.WithMessage("platform and product are required")
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	platform := driver.Kind().String()
	span.SetAttributes(telemetry.SpanAttrPlatform.String(platform))

	code, err := s.issue(ctx, driver)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	image, err := s.images.DataURI(code)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}

	now := s.now()
	attempt, err := qrlogin.NewLoginAttempt(code.Token, driver.Kind(), s.config.AttemptTTL, now)
	if err != nil {
		return nil, err
	}
	attempt.Platform = req.PlatformName
	attempt.Product = req.ProductName
	attempt.PlatformID = platformID
	attempt.ProductID = productID
	attempt.AccountID = req.AccountID
	if err := s.attempts.Save(ctx, attempt, s.config.AttemptTTL); err != nil {
		return nil, fmt.Errorf("save login attempt: %w", err)
	}

	s.metrics.AttemptStarted(ctx, platform)
	logger.Enrich(ctx, s.logger).Info("QR login started",
		zap.String("platform", platform),
		zap.Int64("account_id", req.AccountID),
		zap.Time("expires_at", attempt.ExpiresAt),
	)

	return &StartLoginResponse{
		Token:     code.Token,
		Image:     image,
		Payload:   code.Payload,
		Platform:  platform,
		ExpiresAt: attempt.ExpiresAt,
	}, nil
}

func (s *Service) issue(ctx context.Context, driver qrlogin.Driver) (*qrlogin.QRCode, error) {
	platform := driver.Kind().String()
	defer s.metrics.ObserveUpstream(ctx, platform, "issue_qrcode", time.Now())
	return driver.IssueQRCode(ctx)
}

// CheckLogin polls the code once. A successful login is persisted to the
// account, if any, exactly once however often the client retries.
func (s *Service) CheckLogin(ctx context.Context, req CheckLoginRequest) (*LoginStatusResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "check")
	defer span.End()

	resp, err := s.check(ctx, req, false)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return resp, err
}

// WaitLogin polls the code until it resolves, the attempt expires, or ctx
// is done
func (s *Service) WaitLogin(ctx context.Context, req WaitLoginRequest) (*LoginStatusResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "wait")
	defer span.End()

	resp, err := s.check(ctx, req, true)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return resp, err
}

func (s *Service) check(ctx context.Context, req CheckLoginRequest, blocking bool) (*LoginStatusResponse, error) {
	if req.Token == "" {
		return nil, shared.ErrInvalidInput.WithMessage("token is required")
	}
	ctx, _ = logger.WithLoginToken(ctx, logger.FromContext(ctx), req.Token)

	t, err := s.resolve(ctx, req.Token, req.AccountID, req.PlatformID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.rejectFinished(ctx, t); err != nil {
		return nil, err
	}
	if t.attempt.State.IsLoggedIn() {
		if err := s.persistOnce(ctx, t); err != nil {
			return nil, err
		}
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeSuccess)
		return statusResponse(t.attempt, t.accountID), nil
	}

	pollCtx := ctx
	if blocking {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithDeadline(ctx, t.attempt.ExpiresAt)
		defer cancel()
	}

	res, err := s.poll(pollCtx, t, qrlogin.PollRequest{
		Token:        t.attempt.Token,
		Blocking:     blocking,
		VerifyTicket: t.attempt.Ticket,
		Cookies:      t.attempt.Cookies,
	})
	if err != nil {
		if blocking && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, s.expire(ctx, t)
		}
		return nil, err
	}
	return s.apply(ctx, t, res)
}

func (s *Service) poll(ctx context.Context, t *target, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
	defer s.metrics.ObserveUpstream(ctx, t.platform(), "poll_status", time.Now())
	res, err := t.driver.PollStatus(ctx, req)
	if err != nil {
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeError)
		return nil, err
	}
	return res, nil
}

// apply records a poll result on the attempt
func (s *Service) apply(ctx context.Context, t *target, res *qrlogin.PollResult) (*LoginStatusResponse, error) {
	if res.State != qrlogin.PollSuccess && s.advanced(ctx, t, t.attempt.State) {
		return s.settled(ctx, t)
	}
	now := s.now()
	switch res.State {
	case qrlogin.PollVerificationRequired:
		if err := t.attempt.AwaitCode(*res.Challenge, now); err != nil {
			return nil, err
		}
		if err := s.save(ctx, t); err != nil {
			return nil, err
		}
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeVerification)
		logger.Enrich(ctx, s.logger).Info("QR login needs a verification code",
			zap.String("platform", t.platform()),
			zap.Strings("channels", res.Challenge.Channels),
		)
		resp := statusResponse(t.attempt, t.accountID)
		resp.VerifyWays = res.Challenge.Channels
		resp.VerifySceneDesc = res.Challenge.Prompt
		return resp, nil

	case qrlogin.PollSuccess:
		return s.complete(ctx, t, res.Cookies)

	default:
		if err := s.save(ctx, t); err != nil {
			return nil, err
		}
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeWaiting)
		return statusResponse(t.attempt, t.accountID), nil
	}
}

// advanced reports whether an overlapping request moved the stored attempt
// away from the state this request loaded. The stored attempt then replaces
// the stale copy.
func (s *Service) advanced(ctx context.Context, t *target, from qrlogin.AttemptState) bool {
	stored, err := s.attempts.Get(ctx, t.attempt.Token)
	if err != nil || stored.State == from {
		return false
	}
	logger.Enrich(ctx, s.logger).Debug("Login attempt advanced by another request",
		zap.String("from", string(from)),
		zap.String("to", string(stored.State)),
	)
	t.attempt = stored
	return true
}

// settled answers from an attempt another request already moved on
func (s *Service) settled(ctx context.Context, t *target) (*LoginStatusResponse, error) {
	if err := s.rejectFinished(ctx, t); err != nil {
		return nil, err
	}
	if t.attempt.State.IsLoggedIn() {
		if err := s.persistOnce(ctx, t); err != nil {
			return nil, err
		}
	}
	return statusResponse(t.attempt, t.accountID), nil
}

// complete verifies a fresh session, lists its stores, and persists it
func (s *Service) complete(ctx context.Context, t *target, cookies qrlogin.Cookies) (*LoginStatusResponse, error) {
	log := logger.Enrich(ctx, s.logger).With(zap.String("platform", t.platform()))
	merged := t.attempt.Cookies.Merge(cookies)
	if merged.IsEmpty() {
		return nil, s.fail(ctx, t, fmt.Errorf("%w: login returned no cookies", qrlogin.ErrVerificationFailed))
	}

	stores, err := t.driver.FetchStoreNames(ctx, merged)
	if err != nil {
		log.Warn("Failed to list stores, keeping the previous store set", zap.Error(err))
		stores = nil
	}
	confirmed, err := t.driver.VerifyLogin(ctx, merged)
	if err != nil {
		log.Warn("Failed to verify login session", zap.Error(err))
		confirmed = false
	}

	now := s.now()
	if err := t.attempt.Authenticate(cookies, qrlogin.NormalizeStoreNames(stores), now); err != nil {
		return nil, err
	}
	if confirmed {
		if err := t.attempt.Confirm(now); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeSuccess)
	s.metrics.AttemptFinished(ctx, t.platform())
	log.Info("QR login succeeded",
		zap.Bool("confirmed", confirmed),
		zap.Int("store_count", len(t.attempt.Stores)),
		zap.Int("cookie_count", t.attempt.Cookies.Len()),
	)

	if err := s.persistOnce(ctx, t); err != nil {
		return nil, err
	}
	return statusResponse(t.attempt, t.accountID), nil
}

// persistOnce writes a logged-in attempt to its account. The claim on
// persist:<token> makes retries no-ops and is released when the write fails.
func (s *Service) persistOnce(ctx context.Context, t *target) error {
	if t.accountID == 0 {
		return nil
	}
	key := "persist:" + t.attempt.Token
	claimed, err := s.claims.Claim(ctx, key, s.config.ClaimTTL)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	if !claimed {
		return nil
	}

	ctx, span := telemetry.StartLoginSpan(ctx, "persist",
		telemetry.SpanAttrAccountID.Int64(t.accountID))
	defer span.End()

	status := qrlogin.StatusForLogin(t.attempt.Confirmed)
	err = s.accounts.PersistLogin(ctx, t.accountID, t.attempt.Cookies, status, t.attempt.Stores)
	s.metrics.RecordPersist(ctx, t.platform(), err)
	if err != nil {
		telemetry.RecordError(span, err)
		if releaseErr := s.claims.Release(ctx, key); releaseErr != nil {
			s.logger.Error("Failed to release persist claim", zap.String("key", key), zap.Error(releaseErr))
		}
		return fmt.Errorf("persist login for account %d: %w", t.accountID, err)
	}

	logger.Enrich(ctx, s.logger).Info("Login persisted",
		zap.Int64("account_id", t.accountID),
		zap.Stringer("status", status),
		zap.Int("store_count", len(t.attempt.Stores)),
	)
	return nil
}

// SendCode asks the platform to dispatch a step-up code
func (s *Service) SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "send_code")
	defer span.End()

	t, err := s.resolve(ctx, req.Token, req.AccountID, req.PlatformID, req.ProductID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	cookies := req.Cookies
	way := req.VerifyWay
	if t.attempt != nil {
		cookies = t.attempt.Cookies.Merge(req.Cookies)
		if way == "" {
			way = t.attempt.VerifyWay()
		}
	}

	start := time.Now()
	err = t.driver.SendVerificationCode(ctx, req.Ticket, way, cookies)
	s.metrics.ObserveUpstream(ctx, t.platform(), "send_code", start)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordVerification(ctx, t.platform(), "send_code", outcomeOf(err))
		logger.Enrich(ctx, s.logger).Warn("Verification code dispatch failed",
			zap.String("platform", t.platform()), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordVerification(ctx, t.platform(), "send_code", telemetry.OutcomeSuccess)
	return &SendCodeResponse{Status: StatusSuccess}, nil
}

// SubmitCode exchanges a verification code and polls once with the new
// ticket. Each ticket can be exchanged only once.
func (s *Service) SubmitCode(ctx context.Context, req SubmitCodeRequest) (*LoginStatusResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "submit_code")
	defer span.End()
	ctx, _ = logger.WithLoginToken(ctx, logger.FromContext(ctx), req.Token)

	resp, err := s.submit(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return resp, err
}

func (s *Service) submit(ctx context.Context, req SubmitCodeRequest) (*LoginStatusResponse, error) {
	t, err := s.resolve(ctx, req.Token, req.AccountID, req.PlatformID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.rejectFinished(ctx, t); err != nil {
		return nil, err
	}
	if t.attempt.State.IsLoggedIn() {
		if err := s.persistOnce(ctx, t); err != nil {
			return nil, err
		}
		return statusResponse(t.attempt, t.accountID), nil
	}

	key := fmt.Sprintf("ticket:%s:%s", t.platform(), req.Ticket)
	claimed, err := s.claims.Claim(ctx, key, s.config.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", key, err)
	}
	if !claimed {
		s.metrics.RecordVerification(ctx, t.platform(), "submit_code", telemetry.OutcomeRejected)
		return nil, fmt.Errorf("%w: %s", qrlogin.ErrTicketReused, req.Ticket)
	}

	cookies := t.attempt.Cookies.Merge(req.Cookies)
	way := req.VerifyWay
	if way == "" {
		way = t.attempt.VerifyWay()
	}
	start := time.Now()
	ticket, err := t.driver.ExchangeVerificationCode(ctx, req.Code, req.Ticket, way, cookies)
	s.metrics.ObserveUpstream(ctx, t.platform(), "submit_code", start)
	if err != nil {
		s.metrics.RecordVerification(ctx, t.platform(), "submit_code", outcomeOf(err))
		// a mistyped code may be retried against the same ticket
		if errors.Is(err, qrlogin.ErrVerificationCodeRejected) {
			if releaseErr := s.claims.Release(ctx, key); releaseErr != nil {
				s.logger.Error("Failed to release ticket claim", zap.String("key", key), zap.Error(releaseErr))
			}
		}
		return nil, err
	}
	s.metrics.RecordVerification(ctx, t.platform(), "submit_code", telemetry.OutcomeSuccess)

	from := t.attempt.State
	t.attempt.Cookies = cookies
	if t.attempt.State == qrlogin.AttemptIssued || t.attempt.State == qrlogin.AttemptAwaitingCode {
		if err := t.attempt.ResumeWithTicket(ticket, s.now()); err != nil {
			return nil, err
		}
	}

	res, err := s.poll(ctx, t, qrlogin.PollRequest{
		Token:        t.attempt.Token,
		VerifyTicket: ticket,
		Cookies:      cookies,
	})
	if err != nil {
		return nil, err
	}

	switch res.State {
	case qrlogin.PollSuccess:
		return s.complete(ctx, t, res.Cookies)
	case qrlogin.PollVerificationRequired:
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeVerification)
		return nil, s.fail(ctx, t, fmt.Errorf("%w: platform asked for another verification", qrlogin.ErrVerificationFailed))
	default:
		if s.advanced(ctx, t, from) {
			return s.settled(ctx, t)
		}
		if err := s.save(ctx, t); err != nil {
			return nil, err
		}
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeWaiting)
		return statusResponse(t.attempt, t.accountID), nil
	}
}

// VerifyStore switches a stored account's session into one of its stores
// and checks that the store homepage opens
func (s *Service) VerifyStore(ctx context.Context, req StoreVerifyRequest) (*StoreVerifyResponse, error) {
	ctx, span := telemetry.StartLoginSpan(ctx, "verify_store",
		telemetry.SpanAttrAccountID.Int64(req.AccountID))
	defer span.End()

	account, err := s.accounts.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	driver, err := s.resolver.ResolveByIDs(ctx, account.PlatformID, account.ProductID)
	if err != nil {
		return nil, err
	}
	sessioner, ok := driver.(qrlogin.StoreSessioner)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no store sessions", qrlogin.ErrUnsupportedPlatform, driver.Kind())
	}

	cookies, err := sessioner.StoreCookies(ctx, account.Cookies, req.StoreName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	loggedIn, err := sessioner.VerifyStoreLogin(ctx, cookies, req.StoreName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Store session checked",
		zap.Int64("account_id", account.ID),
		zap.String("store", req.StoreName),
		zap.Bool("logged_in", loggedIn),
	)
	return &StoreVerifyResponse{
		AccountID: account.ID,
		StoreName: req.StoreName,
		LoggedIn:  loggedIn,
		Cookies:   cookies,
	}, nil
}

// resolve finds the driver and attempt for a request. Ids come from the
// account first, then the request, then the stored attempt.
func (s *Service) resolve(ctx context.Context, token string, accountID, platformID, productID int64) (*target, error) {
	t := &target{}
	if token != "" {
		attempt, err := s.attempts.Get(ctx, token)
		switch {
		case err == nil:
			t.attempt = attempt
		case errors.Is(err, qrlogin.ErrAttemptNotFound):
		default:
			return nil, fmt.Errorf("load login attempt: %w", err)
		}
	}

	if accountID == 0 && t.attempt != nil {
		accountID = t.attempt.AccountID
	}
	if accountID != 0 {
		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		platformID, productID = account.PlatformID, account.ProductID
	}
	if platformID == 0 && productID == 0 && t.attempt != nil {
		platformID, productID = t.attempt.PlatformID, t.attempt.ProductID
	}
	t.accountID = accountID

	switch {
	case platformID != 0 || productID != 0:
		driver, err := s.resolver.ResolveByIDs(ctx, platformID, productID)
		if err != nil {
			return nil, err
		}
		t.driver = driver
	case t.attempt != nil:
		driver, ok := s.resolver.Driver(t.attempt.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s", qrlogin.ErrUnsupportedPlatform, t.attempt.Kind)
		}
		t.driver = driver
	case token != "":
		return nil, qrlogin.ErrAttemptNotFound
	default:
		return nil, shared.ErrInvalidInput.WithMessage("token or platform is required")
	}

	if t.attempt != nil && t.attempt.Kind != t.driver.Kind() {
		return nil, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("token was issued by %s, not %s", t.attempt.Kind, t.driver.Kind()))
	}
	if t.attempt == nil && token != "" {
		// codes issued before a restart or by another client are adopted
		attempt, err := qrlogin.NewLoginAttempt(token, t.driver.Kind(), s.config.AttemptTTL, s.now())
		if err != nil {
			return nil, err
		}
		attempt.PlatformID, attempt.ProductID, attempt.AccountID = platformID, productID, accountID
		t.attempt = attempt
	}
	return t, nil
}

// rejectFinished stops work on expired or failed attempts
func (s *Service) rejectFinished(ctx context.Context, t *target) error {
	switch {
	case t.attempt.State == qrlogin.AttemptFailed:
		return fmt.Errorf("%w: login attempt already failed", qrlogin.ErrVerificationFailed)
	case t.attempt.Expired(s.now()):
		return s.expire(ctx, t)
	}
	return nil
}

func (s *Service) expire(ctx context.Context, t *target) error {
	if t.attempt.State != qrlogin.AttemptExpired {
		if err := t.attempt.Expire(s.now()); err != nil {
			return err
		}
		s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeExpired)
		s.metrics.AttemptFinished(ctx, t.platform())
		if err := s.save(ctx, t); err != nil {
			s.logger.Warn("Failed to record expired attempt", zap.Error(err))
		}
		logger.Enrich(ctx, s.logger).Info("QR login expired", zap.String("platform", t.platform()))
	}
	return qrlogin.ErrAttemptExpired
}

func (s *Service) fail(ctx context.Context, t *target, cause error) error {
	if err := t.attempt.Fail(s.now()); err != nil {
		return err
	}
	s.metrics.RecordPoll(ctx, t.platform(), telemetry.OutcomeFailed)
	s.metrics.AttemptFinished(ctx, t.platform())
	if err := s.save(ctx, t); err != nil {
		s.logger.Warn("Failed to record failed attempt", zap.Error(err))
	}
	logger.Enrich(ctx, s.logger).Warn("QR login failed", zap.String("platform", t.platform()), zap.Error(cause))
	return cause
}

// save stores the attempt. Pending attempts keep their original expiry and
// finished ones are kept for another AttemptTTL so retries see the outcome.
func (s *Service) save(ctx context.Context, t *target) error {
	ttl := t.attempt.Remaining(s.now())
	if t.attempt.State.IsTerminal() || t.attempt.State.IsLoggedIn() {
		ttl = s.config.AttemptTTL
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.attempts.Save(ctx, t.attempt, ttl); err != nil {
		return fmt.Errorf("save login attempt: %w", err)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, qrlogin.ErrVerificationDispatch), errors.Is(err, qrlogin.ErrVerificationCodeRejected):
		return telemetry.OutcomeRejected
	default:
		return telemetry.OutcomeError
	}
}
