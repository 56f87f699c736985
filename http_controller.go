package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/koretskiy/go-accounts/middleware/tokenware"
)

type AccountControllerRoutes struct {
	Login          string
	Logout         string
	Register       string
	Activate       string
	PasswordChange string
	PasswordReset  string
	Users          string
}

// AccountController exposes the account lifecycle as a JSON API.
type AccountController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *Auther
	Signer *TokenSigner
	Mail   *MailComposer
	Config Config
	Routes *AccountControllerRoutes
}

type AccountControllerOption func(*AccountController) *AccountController

func WithRepository(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithAuther(auther *Auther) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithSigner(signer *TokenSigner) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Signer = signer
		return c
	}
}

func WithMailComposer(mail *MailComposer) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Mail = mail
		return c
	}
}

func WithConfig(cfg Config) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			Login:          "/login",
			Logout:         "/logout",
			Register:       "/register",
			Activate:       "/user/activate/:uid/:token",
			PasswordChange: "/user/password-change",
			PasswordReset:  "/user/password-reset",
			Users:          "/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in account controller...")
	}

	if c.Mail == nil {
		panic("Missing MailComposer in account controller...")
	}

	if c.Config == nil {
		c.Config = SimpleConfig{}
	}

	if c.Signer == nil {
		c.Signer = NewTokenSigner(c.Config)
	}

	return c
}

// RegisterAccountRoutes mounts the full route set on the given router.
// Every route runs behind the opportunistic token touch, protected
// routes additionally require a resolved active user.
func RegisterAccountRoutes(app fiber.Router, opts ...AccountControllerOption) *AccountController {
	c := NewAccountController(opts...)

	app.Use(tokenware.Touch(c.Auther.TouchToken))

	protected := tokenware.New(tokenware.Config{
		Authenticate:    c.authenticateRequest,
		UserContextKey:  LocalUserKey,
		TokenContextKey: LocalTokenKey,
	})

	app.Post(c.Routes.Register, c.Register)
	app.Post(c.Routes.Activate, c.Activate)
	app.Post(c.Routes.Login, c.Login)
	app.Post(c.Routes.Logout, c.Logout)

	app.Put(c.Routes.PasswordChange, protected, c.PasswordChange)
	app.Post(c.Routes.PasswordReset, c.PasswordResetInitialize)
	app.Put(c.Routes.PasswordReset+"/:uid/:token", c.PasswordResetFinalize)

	app.Get(c.Routes.Users, protected, c.UserList)
	app.Post(c.Routes.Users, protected, c.UserCreate)
	app.Get(c.Routes.Users+"/:id", protected, c.UserRetrieve)
	app.Put(c.Routes.Users+"/:id", protected, c.UserUpdate)

	return c
}

// authenticateRequest adapts the Auther to the tokenware callback. The
// middleware compares against untyped nil, so a missing principal must
// not leak through as a typed nil pointer.
func (a *AccountController) authenticateRequest(ctx context.Context, header string) (any, any, error) {
	user, token, err := a.Auther.Authenticate(ctx, header)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, nil
	}
	return user, token, nil
}

func (a *AccountController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unhandled error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Internal server error.",
		})
	}

	if fields := FieldErrors(err); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fields)
	}

	return c.Status(StatusForError(richErr)).JSON(fiber.Map{
		"detail": richErr.Message,
	})
}

func (a *AccountController) Register(c *fiber.Ctx) error {
	msg := RegisterUserMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	handler := NewRegisterUserHandler(a.Repo, a.Config, a.Signer, a.Mail).WithLogger(a.Logger)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"detail": "An activation e-mail has been sent to your email address.",
	})
}

func (a *AccountController) Activate(c *fiber.Ctx) error {
	msg := ActivateAccountMessage{
		UID:   c.Params("uid"),
		Token: c.Params("token"),
	}

	handler := NewActivateAccountHandler(a.Repo, a.Signer)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"detail": "Your account has been activated."})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) Login(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, NewValidationError(FormatValidationErrorToMap(err)))
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"email": payload.Email,
		"token": token.Key,
	})
}

func (a *AccountController) Logout(c *fiber.Ctx) error {
	if err := a.Auther.Logout(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"detail": "You have successfully logged out."})
}

func (a *AccountController) PasswordChange(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return a.renderError(c, ErrPermissionDenied)
	}

	msg := ChangePasswordMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}
	msg.User = user

	handler := NewChangePasswordHandler(a.Repo, a.Config)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"detail": "Password has been successfully updated"})
}

func (a *AccountController) PasswordResetInitialize(c *fiber.Ctx) error {
	msg := InitializePasswordResetMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	handler := NewInitializePasswordResetHandler(a.Repo, a.Signer, a.Mail)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"detail": "A password reset e-mail has been sent to your email address.",
	})
}

func (a *AccountController) PasswordResetFinalize(c *fiber.Ctx) error {
	msg := FinalizePasswordResetMessage{
		UID:   c.Params("uid"),
		Token: c.Params("token"),
	}
	if err := c.BodyParser(&msg); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	handler := NewFinalizePasswordResetHandler(a.Repo, a.Config, a.Signer)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"detail": "Password has been successfully updated"})
}

// userView is the restricted serialization regular users see.
type userView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone_number"`
}

// adminUserView exposes account flags on top of the profile fields.
type adminUserView struct {
	userView
	IsActive    bool `json:"is_active"`
	IsAdmin     bool `json:"is_admin"`
	IsSuperuser bool `json:"is_superuser"`
}

func newUserView(u *User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func newAdminUserView(u *User) adminUserView {
	return adminUserView{
		userView:    newUserView(u),
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		IsSuperuser: u.IsSuperuser,
	}
}

func (a *AccountController) UserList(c *fiber.Ctx) error {
	user, _ := CurrentUser(c)
	if !IsAdmin(user) {
		return a.renderError(c, ErrPermissionDenied)
	}

	users, err := a.Repo.Users().FindAll(c.UserContext())
	if err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users"))
	}

	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, newAdminUserView(u))
	}

	return c.JSON(out)
}

// AdminCreateUserRequest payload
type AdminCreateUserRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone_number"`
	Password    string `json:"password"`
	IsActive    bool   `json:"is_active"`
	IsAdmin     bool   `json:"is_admin"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (r AdminCreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 30)),
		validation.Field(&r.LastName, validation.Length(0, 30)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.By(ValidatePasswordStrength)),
	)
}

func (a *AccountController) UserCreate(c *fiber.Ctx) error {
	user, _ := CurrentUser(c)
	if !IsAdmin(user) {
		return a.renderError(c, ErrPermissionDenied)
	}

	payload := AdminCreateUserRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, NewValidationError(FormatValidationErrorToMap(err)))
	}

	if _, err := a.Repo.Users().GetByEmail(c.UserContext(), payload.Email); err == nil {
		return a.renderError(c, NewValidationError(map[string]string{
			"email": "user with this email already exists",
		}))
	} else if !repository.IsRecordNotFound(err) {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing email"))
	}

	hash, err := HashPasswordCost(payload.Password, a.Config.GetBcryptCost())
	if err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password"))
	}

	record := &User{
		Email:        payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Phone:        payload.Phone,
		PasswordHash: hash,
		IsActive:     payload.IsActive,
		IsAdmin:      payload.IsAdmin,
		IsSuperuser:  payload.IsSuperuser,
	}

	created, err := a.Repo.Users().Register(c.UserContext(), record)
	if err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user"))
	}

	return c.Status(fiber.StatusCreated).JSON(newAdminUserView(created))
}

func (a *AccountController) UserRetrieve(c *fiber.Ctx) error {
	current, _ := CurrentUser(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.renderError(c, ErrPermissionDenied)
	}

	// Ownership is checked before existence so a regular user cannot
	// probe which account ids exist.
	if !IsOwnerOrAdmin(current, id) {
		return a.renderError(c, ErrPermissionDenied)
	}

	target, err := a.Repo.Users().GetByID(c.UserContext(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
		}
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user"))
	}

	if IsAdmin(current) {
		return c.JSON(newAdminUserView(target))
	}

	return c.JSON(newUserView(target))
}

// UpdateUserRequest payload, flag fields are honored for admins only.
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone_number"`
	IsActive    *bool   `json:"is_active"`
	IsAdmin     *bool   `json:"is_admin"`
	IsSuperuser *bool   `json:"is_superuser"`
}

func (r UpdateUserRequest) Validate() error {
	phone := ""
	if r.Phone != nil {
		phone = *r.Phone
	}
	return validation.Validate(phone, validation.By(ValidatePhoneNumber))
}

func (a *AccountController) UserUpdate(c *fiber.Ctx) error {
	current, _ := CurrentUser(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.renderError(c, ErrPermissionDenied)
	}

	if !IsOwnerOrAdmin(current, id) {
		return a.renderError(c, ErrPermissionDenied)
	}

	payload := UpdateUserRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, NewValidationError(FormatValidationErrorToMap(err)))
	}

	target, err := a.Repo.Users().GetByID(c.UserContext(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
		}
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user"))
	}

	if payload.FirstName != nil {
		target.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		target.LastName = *payload.LastName
	}
	if payload.Phone != nil {
		target.Phone = *payload.Phone
	}

	updated, err := a.Repo.Users().Update(c.UserContext(), target, repository.UpdateByID(target.ID.String()))
	if err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user"))
	}

	if !IsAdmin(current) {
		return c.JSON(newUserView(updated))
	}

	isActive := updated.IsActive
	isAdminFlag := updated.IsAdmin
	isSuperuser := updated.IsSuperuser
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}
	if payload.IsAdmin != nil {
		isAdminFlag = *payload.IsAdmin
	}
	if payload.IsSuperuser != nil {
		isSuperuser = *payload.IsSuperuser
	}

	if isActive != updated.IsActive || isAdminFlag != updated.IsAdmin || isSuperuser != updated.IsSuperuser {
		if err := a.Repo.Users().UpdateFlags(c.UserContext(), updated.ID, isActive, isAdminFlag, isSuperuser); err != nil {
			return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account flags"))
		}
		updated.IsActive = isActive
		updated.IsAdmin = isAdminFlag
		updated.IsSuperuser = isSuperuser
	}

	return c.JSON(newAdminUserView(updated))
}
