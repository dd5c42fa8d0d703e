package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GenerateToken signs an HS256 token carrying the user id.
func GenerateToken(secret string, userID uint, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Register stores a new user with a bcrypt password hash.
func Register(db *gorm.DB, email, username, password string) (*User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		ProfileImage: defaultProfileImage,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := checkIdentityFree(tx, 0, email, username); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// checkIdentityFree fails when email or username belongs to someone other than selfID.
func checkIdentityFree(tx *gorm.DB, selfID uint, email, username string) error {
	var count int64
	if err := tx.Model(&User{}).Where("email = ? AND id <> ?", email, selfID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if err := tx.Model(&User{}).Where("username = ? AND id <> ?", username, selfID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return nil
}

// Authenticate returns the user owning email if password matches.
func Authenticate(db *gorm.DB, email, password string) (*User, error) {
	var user User
	if err := db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// UpdateProfile changes email and username, keeping both unique.
func UpdateProfile(db *gorm.DB, userID uint, email, username string) (*User, error) {
	var user User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.Email = strings.TrimSpace(email)
		user.Username = strings.TrimSpace(username)
		if err := checkIdentityFree(tx, userID, user.Email, user.Username); err != nil {
			return err
		}
		return tx.Model(&user).Select("email", "username").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ========================
// SIGNUP HANDLER
// ========================

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) Signup(c *gin.Context) {
	var body SignupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := Register(s.db(c), body.Email, body.Username, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful",
		"user":    user,
	})
}

// ========================
// LOGIN HANDLER
// ========================

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := Authenticate(s.db(c), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := GenerateToken(s.Config.JWTSecret, user.ID, time.Duration(s.Config.TokenTTLHours)*time.Hour)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
