package service

import "errors"

// Ошибки уровня сервиса. Хэндлеры различают их через errors.Is
// и отображают в HTTP-статусы.
var (
	// ErrNotAuthenticated - операция требует авторизованную личность
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLocationUnavailable - клиент не смог предоставить координаты
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrAlreadyClaimed - инцидент уже принят другим респондером.
	// Ожидаемый исход гонки, не ошибка инфраструктуры.
	ErrAlreadyClaimed = errors.New("incident already claimed")

	// ErrNotVerified - профиль респондера не прошел верификацию
	ErrNotVerified = errors.New("responder not verified")

	// ErrIncidentNotFound - инцидент с таким id не существует
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrProfileNotFound - профиль респондера не существует
	ErrProfileNotFound = errors.New("responder profile not found")

	// ErrEmailTaken - email уже зарегистрирован
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials - неверная пара email/пароль или сессия истекла
	ErrInvalidCredentials = errors.New("invalid credentials")
)
