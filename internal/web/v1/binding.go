package v1

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/middleware"
)

func init() {
	// JSON bodies with fields the handlers do not know are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

// Form field names.
const (
	fieldListingImage = "listing[image]"
)

// errBadRequest marks input that could not be decoded.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type listingForm struct {
	Title       *string `form:"listing[title]"`
	Description *string `form:"listing[description]"`
	Price       *string `form:"listing[price]"`
	Location    *string `form:"listing[location]"`
	Country     *string `form:"listing[country]"`
	Zip         *string `form:"listing[zip]"`
	Category    *string `form:"listing[category]"`
}

var listingFormFields = []string{
	"listing[title]", "listing[description]", "listing[price]", "listing[location]",
	"listing[country]", "listing[zip]", "listing[category]", fieldListingImage,
}

type listingJSON struct {
	Listing logicv1.ListingInput `json:"listing"`
}

type reviewForm struct {
	Comment string `form:"review[comment]"`
	Rating  string `form:"review[rating]"`
}

type reviewJSON struct {
	Review logicv1.ReviewInput `json:"review"`
}

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON
}

// rejectUnknownFields fails when the submitted form carries a key outside allowed.
func rejectUnknownFields(c *gin.Context, allowed ...string) error {
	known := make(map[string]bool, len(allowed)+1)
	known[middleware.MethodOverrideField] = true
	for _, f := range allowed {
		known[f] = true
	}
	check := func(keys map[string][]string) error {
		for k := range keys {
			if !known[k] {
				return badRequest("unknown field %q", k)
			}
		}
		return nil
	}
	if err := check(c.Request.PostForm); err != nil {
		return err
	}
	if mf := c.Request.MultipartForm; mf != nil {
		if err := check(mf.Value); err != nil {
			return err
		}
		for k := range mf.File {
			if !known[k] {
				return badRequest("unknown file field %q", k)
			}
		}
	}
	return nil
}

func bindError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errUploadTooLarge
	}
	return badRequest("%v", err)
}

// bindListing decodes a listing from a JSON body or a (multipart) form.
// The image is only read from multipart forms.
func bindListing(c *gin.Context) (logicv1.ListingInput, *logicv1.ImageUpload, error) {
	if isJSON(c) {
		var body listingJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return logicv1.ListingInput{}, nil, bindError(err)
		}
		return body.Listing, nil, nil
	}

	var form listingForm
	if err := c.ShouldBind(&form); err != nil {
		return logicv1.ListingInput{}, nil, bindError(err)
	}
	if err := rejectUnknownFields(c, listingFormFields...); err != nil {
		return logicv1.ListingInput{}, nil, err
	}

	in := logicv1.ListingInput{
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		Country:     form.Country,
		Zip:         form.Zip,
		Category:    form.Category,
	}
	if form.Price != nil && strings.TrimSpace(*form.Price) != "" {
		p, err := strconv.ParseFloat(strings.TrimSpace(*form.Price), 64)
		if err != nil {
			return in, nil, fmt.Errorf("%w: price must be a number", logicv1.ErrValidation)
		}
		in.Price = &p
	}

	img, err := formImage(c)
	if err != nil {
		return in, nil, err
	}
	return in, img, nil
}

func formImage(c *gin.Context) (*logicv1.ImageUpload, error) {
	fh, err := c.FormFile(fieldListingImage)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, bindError(err)
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*logicv1.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		_ = f.Close()
		return nil, fmt.Errorf("%w: image must be an image file", logicv1.ErrValidation)
	}
	// The multipart temp file is removed once the request ends.
	return &logicv1.ImageUpload{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, nil
}

func bindReview(c *gin.Context) (logicv1.ReviewInput, error) {
	if isJSON(c) {
		var body reviewJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return logicv1.ReviewInput{}, bindError(err)
		}
		return body.Review, nil
	}
	var form reviewForm
	if err := c.ShouldBind(&form); err != nil {
		return logicv1.ReviewInput{}, bindError(err)
	}
	if err := rejectUnknownFields(c, "review[comment]", "review[rating]"); err != nil {
		return logicv1.ReviewInput{}, err
	}
	in := logicv1.ReviewInput{Comment: form.Comment}
	if r := strings.TrimSpace(form.Rating); r != "" {
		n, err := strconv.Atoi(r)
		if err != nil {
			return in, fmt.Errorf("%w: rating must be a whole number", logicv1.ErrValidation)
		}
		in.Rating = n
	}
	return in, nil
}

func bindSignup(c *gin.Context) (logicv1.RegisterInput, error) {
	var in logicv1.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		return in, signupError(err)
	}
	if !isJSON(c) {
		if err := rejectUnknownFields(c, "username", "email", "password"); err != nil {
			return in, err
		}
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := binding.Validator.ValidateStruct(&in); err != nil {
		return in, signupError(err)
	}
	return in, nil
}

// signupError turns the first failed binding rule into the notice shown on
// the sign-up page.
func signupError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return bindError(err)
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "email" {
		return badRequest("%s is invalid", field)
	}
	return badRequest("%s is required", field)
}

func bindLogin(c *gin.Context) (loginForm, error) {
	var in loginForm
	if err := c.ShouldBind(&in); err != nil {
		return in, bindError(err)
	}
	if !isJSON(c) {
		if err := rejectUnknownFields(c, "username", "password"); err != nil {
			return in, err
		}
	}
	return in, nil
}
