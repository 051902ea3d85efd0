package services

import (
	"fmt"
	"image"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"trip/pkg/utils"
)

const (
	userPhotoSize   = 500
	tourImageWidth  = 2000
	tourImageHeight = 1333
	jpegQuality     = 90
)

type ImageService interface {
	// SaveUserPhoto stores a 500x500 JPEG and returns its file name.
	SaveUserPhoto(userID uuid.UUID, file *multipart.FileHeader) (string, error)
	// SaveTourImages stores 2000x1333 JPEGs; a nil cover or empty images is skipped.
	SaveTourImages(tourID uuid.UUID, cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error)
}

type imageService struct {
	publicDir string
	now       utils.Clock
}

func NewImageService(publicDir string, now utils.Clock) ImageService {
	return &imageService{publicDir: publicDir, now: now.OrSystem()}
}

func (s *imageService) SaveUserPhoto(userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("user-%s-%d.jpeg", userID, s.now().UnixMilli())
	return name, s.save(file, "users", name, userPhotoSize, userPhotoSize)
}

func (s *imageService) SaveTourImages(tourID uuid.UUID, cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error) {
	stamp := s.now().UnixMilli()

	var coverName string
	if cover != nil {
		coverName = fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, stamp)
		if err := s.save(cover, "tours", coverName, tourImageWidth, tourImageHeight); err != nil {
			return "", nil, err
		}
	}

	names := make([]string, 0, len(images))
	for i, file := range images {
		name := fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, stamp, i+1)
		if err := s.save(file, "tours", name, tourImageWidth, tourImageHeight); err != nil {
			return "", nil, err
		}
		names = append(names, name)
	}
	return coverName, names, nil
}

func (s *imageService) save(file *multipart.FileHeader, kind, name string, width, height int) error {
	img, err := decodeImage(file)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.publicDir, "img", kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	return imaging.Save(resized, filepath.Join(dir, name), imaging.JPEGQuality(jpegQuality))
}

func decodeImage(file *multipart.FileHeader) (image.Image, error) {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image") {
		return nil, utils.ErrNotAnImage
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, utils.ErrNotAnImage
	}
	return img, nil
}
