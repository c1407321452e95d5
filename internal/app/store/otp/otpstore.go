// internal/app/store/otp/otpstore.go
package otpstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OTP purposes. Login codes gate credential sign-in when the site policy
// requires it; password reset codes back the forgot-password flow.
const (
	PurposeLogin         = "login"
	PurposePasswordReset = "password_reset"
)

// ErrInvalidCode is returned when a code or token doesn't match an
// unused, unexpired record.
var ErrInvalidCode = errors.New("invalid or expired code")

// Code represents a one-time code issued to a user by email.
// Each record carries both a short numeric code (typed from the email)
// and a URL-safe token (clicked from the email link).
type Code struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Email     string             `bson:"email"`
	Code      string             `bson:"code"`
	Token     string             `bson:"token"`
	Purpose   string             `bson:"purpose"`
	Used      bool               `bson:"used"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the otp_codes collection.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a new one-time code store.
func New(db *mongo.Database, expiry time.Duration) *Store {
	return &Store{
		c:      db.Collection("otp_codes"),
		expiry: expiry,
	}
}

// Expiry returns the configured code lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create issues a new code for the user and purpose.
// Any existing unused codes for the same user and purpose are invalidated,
// so only the most recently issued code can be redeemed.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email, purpose string) (*Code, error) {
	_, _ = s.c.UpdateMany(
		ctx,
		bson.M{"user_id": userID, "purpose": purpose, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)

	code, err := generateCode(6)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := Code{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Email:     email,
		Code:      code,
		Token:     token,
		Purpose:   purpose,
		Used:      false,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return nil, err
	}

	return &c, nil
}

// VerifyCode checks a typed code for an email and purpose.
// Returns ErrInvalidCode if no unused, unexpired record matches.
func (s *Store) VerifyCode(ctx context.Context, email, purpose, code string) (*Code, error) {
	var c Code
	filter := bson.M{
		"email":      email,
		"purpose":    purpose,
		"code":       code,
		"used":       false,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	return &c, nil
}

// VerifyToken checks a link token for a purpose.
// Returns ErrInvalidCode if no unused, unexpired record matches.
func (s *Store) VerifyToken(ctx context.Context, purpose, token string) (*Code, error) {
	var c Code
	filter := bson.M{
		"token":      token,
		"purpose":    purpose,
		"used":       false,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	return &c, nil
}

// MarkUsed marks a code as used so it can't be replayed.
func (s *Store) MarkUsed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"used": true}},
	)
	return err
}

// generateCode generates a uniformly random numeric code of the specified
// length. Bytes >= 250 are rejected so the modulo does not skew toward low
// digits.
func generateCode(length int) (string, error) {
	const digits = "0123456789"
	b := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(b) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			if v >= 250 {
				continue
			}
			b = append(b, digits[v%10])
			if len(b) == length {
				break
			}
		}
	}
	return string(b), nil
}

// generateToken generates a random URL-safe token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
