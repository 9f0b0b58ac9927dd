package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotEnoughCandidates  = errors.New("worldcup needs at least 4 candidates to be played")
	ErrCandidateMismatch    = errors.New("candidates belong to different worldcups")
	ErrInvalidRunToken      = errors.New("run token is invalid or expired")
	ErrUnsupportedImageType = errors.New("no supported image content types requested")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrCandidateKeyConflict = errors.New("image key is already used by another candidate")

	// Повторная отправка уже учтённого результата. Не ошибка для клиента.
	ErrDuplicateResult = errors.New("match result was already applied")

	// Хранилище счётчиков недоступно, результат не применён.
	ErrStoreUnavailable = errors.New("candidate store is unavailable")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	ErrUserNotFound      = errors.New("user not found")
	ErrWorldcupNotFound  = errors.New("worldcup not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrCommentNotFound   = errors.New("comment not found")
)
