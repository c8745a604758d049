package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/service"
	"github.com/uchennaezeilo/ExamCert/pkg/auth"
)

type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) Register(ctx context.Context, email, password string) (*entity.User, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthProvider) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthProvider) GetMe(ctx context.Context, userID uint) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthProvider) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *MockAuthProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(token, newPassword).Error(0)
}

func (m *MockAuthProvider) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	return m.Called(userID, currentPassword, newPassword).Error(0)
}

type MockCatalogProvider struct {
	mock.Mock
}

func (m *MockCatalogProvider) ListCertifications(ctx context.Context) ([]entity.Certification, error) {
	args := m.Called()
	return args.Get(0).([]entity.Certification), args.Error(1)
}

func (m *MockCatalogProvider) GetCertification(ctx context.Context, id uint) (*entity.Certification, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Certification), args.Error(1)
}

func (m *MockCatalogProvider) ListQuestions(ctx context.Context, certificationID *uint) ([]entity.Question, error) {
	args := m.Called(certificationID)
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockCatalogProvider) CreateQuestion(ctx context.Context, in service.CreateQuestionInput) (*entity.Question, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

type MockExamEngine struct {
	mock.Mock
}

func (m *MockExamEngine) Start(ctx context.Context, userID, certificationID uint) (*service.StartResult, error) {
	args := m.Called(userID, certificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartResult), args.Error(1)
}

func (m *MockExamEngine) Answer(ctx context.Context, userID uint, in service.AnswerInput) error {
	return m.Called(userID, in).Error(0)
}

func (m *MockExamEngine) Finish(ctx context.Context, userID, attemptID uint) (int, error) {
	args := m.Called(userID, attemptID)
	return args.Int(0), args.Error(1)
}

func (m *MockExamEngine) Active(ctx context.Context, userID uint) (*service.ActiveAttempt, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActiveAttempt), args.Error(1)
}

func (m *MockExamEngine) History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error) {
	args := m.Called(userID)
	return args.Get(0).([]entity.AttemptSummary), args.Error(1)
}

func (m *MockExamEngine) ExportHistory(ctx context.Context, userID uint, format string, w io.Writer) error {
	args := m.Called(userID, format, w)
	return args.Error(0)
}

func (m *MockExamEngine) Review(ctx context.Context, userID, attemptID uint) ([]entity.ReviewItem, error) {
	args := m.Called(userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewItem), args.Error(1)
}

// staticTokens принимает токены вида "user-<id>" из фиксированной таблицы
type staticTokens map[string]uint

func (s staticTokens) ParseToken(ctx context.Context, tokenString string) (*auth.JWTCustomClaims, error) {
	userID, ok := s[tokenString]
	if !ok {
		return nil, auth.ErrTokenInvalid
	}
	return &auth.JWTCustomClaims{UserID: userID}, nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error {
	return p.err
}
