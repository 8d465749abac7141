package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/api/middleware"
	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// newTestContext builds an echo context for target with a JSON body and, when
// accountID is set, an authenticated principal.
func newTestContext(method, target, body, accountID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if accountID != "" {
		c.Set(middleware.PrincipalKey, middleware.Principal{AccountID: accountID})
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

type stubPostService struct {
	ports.PostService
	createFn      func(ctx context.Context, actorID string, content domain.PostContent) (*domain.PostView, error)
	feedFn        func(ctx context.Context, actorID string, limit int) ([]domain.PostView, error)
	toggleLikeFn  func(ctx context.Context, actorID, postID string) (*domain.LikeResult, error)
	listCommentFn func(ctx context.Context, in ports.ListCommentsInput) ([]domain.CommentView, error)
	deleteFn      func(ctx context.Context, actorID, postID string) error
}

func (s *stubPostService) Create(ctx context.Context, actorID string, content domain.PostContent) (*domain.PostView, error) {
	return s.createFn(ctx, actorID, content)
}

func (s *stubPostService) Feed(ctx context.Context, actorID string, limit int) ([]domain.PostView, error) {
	return s.feedFn(ctx, actorID, limit)
}

func (s *stubPostService) ToggleLike(ctx context.Context, actorID, postID string) (*domain.LikeResult, error) {
	return s.toggleLikeFn(ctx, actorID, postID)
}

func (s *stubPostService) ListComments(ctx context.Context, in ports.ListCommentsInput) ([]domain.CommentView, error) {
	return s.listCommentFn(ctx, in)
}

func (s *stubPostService) Delete(ctx context.Context, actorID, postID string) error {
	return s.deleteFn(ctx, actorID, postID)
}

type stubAccountService struct {
	ports.AccountService
	profileFn func(ctx context.Context, viewerID, accountID string) (*domain.Profile, error)
	updateFn  func(ctx context.Context, actorID string, update domain.ProfileUpdate) (*domain.Account, error)
}

func (s *stubAccountService) Profile(ctx context.Context, viewerID, accountID string) (*domain.Profile, error) {
	return s.profileFn(ctx, viewerID, accountID)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, actorID string, update domain.ProfileUpdate) (*domain.Account, error) {
	return s.updateFn(ctx, actorID, update)
}

type stubSocialService struct {
	ports.SocialService
	toggleFn func(ctx context.Context, actorID, targetID string) (domain.FollowState, error)
}

func (s *stubSocialService) ToggleFollow(ctx context.Context, actorID, targetID string) (domain.FollowState, error) {
	return s.toggleFn(ctx, actorID, targetID)
}

type stubMessageService struct {
	ports.MessageService
	sendFn     func(ctx context.Context, in ports.SendMessageInput) (*ports.SendResult, error)
	historyFn  func(ctx context.Context, actorID, userA, userB string) ([]*domain.Message, error)
	markReadFn func(ctx context.Context, actorID, messageID string) (*domain.Message, error)
	deleteFn   func(ctx context.Context, actorID, messageID string) error
}

func (s *stubMessageService) Send(ctx context.Context, in ports.SendMessageInput) (*ports.SendResult, error) {
	return s.sendFn(ctx, in)
}

func (s *stubMessageService) History(ctx context.Context, actorID, userA, userB string) ([]*domain.Message, error) {
	return s.historyFn(ctx, actorID, userA, userB)
}

func (s *stubMessageService) MarkRead(ctx context.Context, actorID, messageID string) (*domain.Message, error) {
	return s.markReadFn(ctx, actorID, messageID)
}

func (s *stubMessageService) Delete(ctx context.Context, actorID, messageID string) error {
	return s.deleteFn(ctx, actorID, messageID)
}

type stubNotificationService struct {
	ports.NotificationService
	listFn func(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
}

func (s *stubNotificationService) List(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	return s.listFn(ctx, recipientID, unreadOnly)
}

type stubMediaService struct {
	uploadFn func(ctx context.Context, in ports.UploadInput) (*ports.UploadResult, error)
}

func (s *stubMediaService) Upload(ctx context.Context, in ports.UploadInput) (*ports.UploadResult, error) {
	return s.uploadFn(ctx, in)
}
