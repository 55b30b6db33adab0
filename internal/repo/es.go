package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/es"
	"github.com/Skotchmaster/recommend_shop/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

// ESRepo keeps identity and refresh-token records as documents. Email
// uniqueness is check-then-create and therefore racy under concurrent
// registration of the same address.
type ESRepo struct {
	ES          *elasticsearch.Client
	UsersIndex  string
	TokensIndex string
}

func NewESRepo(client *elasticsearch.Client, usersIndex, tokensIndex string) *ESRepo {
	return &ESRepo{ES: client, UsersIndex: usersIndex, TokensIndex: tokensIndex}
}

type userDoc struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	Password         string     `json:"password"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ResetToken       *string    `json:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time `json:"reset_token_expiry,omitempty"`
}

func userToDoc(u *models.User) userDoc {
	return userDoc{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Password:         u.PasswordHash,
		Status:           u.Status,
		CreatedAt:        u.CreatedAt,
		ResetToken:       u.ResetTokenHash,
		ResetTokenExpiry: u.ResetTokenExpiry,
	}
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:               d.ID,
		Email:            d.Email,
		Username:         d.Username,
		PasswordHash:     d.Password,
		Status:           d.Status,
		CreatedAt:        d.CreatedAt,
		ResetTokenHash:   d.ResetToken,
		ResetTokenExpiry: d.ResetTokenExpiry,
	}
}

type refreshDoc struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"created_at"`
}

func (d refreshDoc) model() *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: d.Token,
		UserID:    d.UserID,
		ExpiresAt: d.Expiry,
		CreatedAt: d.CreatedAt,
	}
}

func termQuery(field, value string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"term": map[string]any{field: value},
		},
	}
}

func (r *ESRepo) findOneUser(ctx context.Context, field, value string) (*models.User, error) {
	q := termQuery(field, value)
	q["size"] = 1
	body, err := es.Body(q)
	if err != nil {
		return nil, err
	}

	res, err := r.ES.Search(
		r.ES.Search.WithContext(ctx),
		r.ES.Search.WithIndex(r.UsersIndex),
		r.ES.Search.WithBody(body),
	)
	var resp es.SearchResponse[userDoc]
	if err := es.Decode(res, err, &resp); err != nil {
		return nil, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, ErrNotFound
	}
	return resp.Hits.Hits[0].Source.model(), nil
}

func (r *ESRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	if _, err := r.GetUserByEmail(ctx, u.Email); err == nil {
		return ErrUserAlreadyExist
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	body, err := es.Body(userToDoc(u))
	if err != nil {
		return err
	}
	res, err := r.ES.Index(r.UsersIndex, body,
		r.ES.Index.WithContext(ctx),
		r.ES.Index.WithDocumentID(u.ID),
		r.ES.Index.WithOpType("create"),
		r.ES.Index.WithRefresh("true"),
	)
	err = es.Decode(res, err, nil)
	if es.IsConflict(err) {
		return ErrUserAlreadyExist
	}
	return err
}

func (r *ESRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOneUser(ctx, "email", email)
}

func (r *ESRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	res, err := r.ES.Get(r.UsersIndex, id, r.ES.Get.WithContext(ctx))
	var resp es.GetResponse[userDoc]
	err = es.Decode(res, err, &resp)
	if es.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Source.model(), nil
}

func (r *ESRepo) updateUser(ctx context.Context, userID string, doc map[string]any) error {
	body, err := es.Body(map[string]any{"doc": doc})
	if err != nil {
		return err
	}
	res, err := r.ES.Update(r.UsersIndex, userID, body,
		r.ES.Update.WithContext(ctx),
		r.ES.Update.WithRefresh("true"),
	)
	err = es.Decode(res, err, nil)
	if es.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *ESRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	return r.updateUser(ctx, userID, map[string]any{
		"reset_token":        tokenHash,
		"reset_token_expiry": expiry,
	})
}

func (r *ESRepo) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.findOneUser(ctx, "reset_token", tokenHash)
}

func (r *ESRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateUser(ctx, userID, map[string]any{
		"password":           passwordHash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	})
}

// CreateRefresh stores the token under its hash so lookups are realtime gets.
func (r *ESRepo) CreateRefresh(ctx context.Context, t *models.RefreshToken) error {
	body, err := es.Body(refreshDoc{
		UserID:    t.UserID,
		Token:     t.TokenHash,
		Expiry:    t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	})
	if err != nil {
		return err
	}
	res, err := r.ES.Index(r.TokensIndex, body,
		r.ES.Index.WithContext(ctx),
		r.ES.Index.WithDocumentID(t.TokenHash),
		r.ES.Index.WithRefresh("true"),
	)
	return es.Decode(res, err, nil)
}

func (r *ESRepo) FindRefresh(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	res, err := r.ES.Get(r.TokensIndex, tokenHash, r.ES.Get.WithContext(ctx))
	var resp es.GetResponse[refreshDoc]
	err = es.Decode(res, err, &resp)
	if es.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Source.model(), nil
}

func (r *ESRepo) DeleteRefresh(ctx context.Context, tokenHash string) error {
	res, err := r.ES.Delete(r.TokensIndex, tokenHash,
		r.ES.Delete.WithContext(ctx),
		r.ES.Delete.WithRefresh("true"),
	)
	err = es.Decode(res, err, nil)
	if es.IsNotFound(err) {
		return nil
	}
	return err
}

func (r *ESRepo) DeleteRefreshForUser(ctx context.Context, userID string) error {
	body, err := es.Body(termQuery("user_id", userID))
	if err != nil {
		return err
	}
	res, err := r.ES.DeleteByQuery([]string{r.TokensIndex}, body,
		r.ES.DeleteByQuery.WithContext(ctx),
		r.ES.DeleteByQuery.WithRefresh(true),
		r.ES.DeleteByQuery.WithConflicts("proceed"),
	)
	err = es.Decode(res, err, nil)
	if es.IsNotFound(err) {
		return nil
	}
	return err
}

func (r *ESRepo) Ping(ctx context.Context) error {
	res, err := r.ES.Ping(r.ES.Ping.WithContext(ctx))
	return es.Decode(res, err, nil)
}
