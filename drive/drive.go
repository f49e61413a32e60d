// Package drive discovers videos and their sidecar metadata in a Google
// Drive folder hierarchy and fetches their bytes for upload.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/drivecast/drivecast/videouploader"
)

const (
	folder_mime_type = "application/vnd.google-apps.folder"

	sidecar_title       = "title.txt"
	sidecar_description = "description.txt"
	sidecar_tags        = "tags.txt"
	sidecar_thumbnail   = "thumbnail.jpg"

	DefaultMaxDepth = 2
)

// Video is one discovered video file and where it was found.
type Video struct {
	Id       string
	Name     string
	Size     int64
	Path     string
	FolderId string
}

// Client wraps the Drive API for discovery and download.
type Client struct {
	service *drive.Service
	tempDir string
}

// NewClient authenticates with read-only service account credentials.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	service, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	return &Client{service: service, tempDir: os.TempDir()}, nil
}

// NewClientWithService wires an already-built service, for tests.
func NewClientWithService(service *drive.Service) *Client {
	return &Client{service: service, tempDir: os.TempDir()}
}

// Videos walks the folder tree under the Drive root and returns every video
// found, depth-limited. If folderFilter is non-empty, only top-level folders
// with that name are entered.
func (c *Client) Videos(ctx context.Context, folderFilter string, maxDepth int) ([]Video, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	folders, err := c.listFolders(ctx, "root")
	if err != nil {
		return nil, err
	}

	var videos []Video
	for _, folder := range folders {
		if folderFilter != "" && folder.Name != folderFilter {
			continue
		}
		found, err := c.walk(ctx, folder.Id, folder.Name, 1, maxDepth)
		if err != nil {
			return nil, err
		}
		videos = append(videos, found...)
	}
	return videos, nil
}

func (c *Client) walk(ctx context.Context, folderId, path string, depth, maxDepth int) ([]Video, error) {
	files, err := c.listVideos(ctx, folderId)
	if err != nil {
		return nil, err
	}
	var videos []Video
	for _, f := range files {
		videos = append(videos, Video{
			Id:       f.Id,
			Name:     f.Name,
			Size:     f.Size,
			Path:     path,
			FolderId: folderId,
		})
	}

	if depth >= maxDepth {
		return videos, nil
	}
	subfolders, err := c.listFolders(ctx, folderId)
	if err != nil {
		return nil, err
	}
	for _, sub := range subfolders {
		found, err := c.walk(ctx, sub.Id, path+"/"+sub.Name, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		videos = append(videos, found...)
	}
	return videos, nil
}

func (c *Client) listFolders(ctx context.Context, parentId string) ([]*drive.File, error) {
	query := fmt.Sprintf("mimeType='%s' and '%s' in parents and trashed=false", folder_mime_type, parentId)
	res, err := c.service.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive: list folders: %w", err)
	}
	return res.Files, nil
}

func (c *Client) listVideos(ctx context.Context, folderId string) ([]*drive.File, error) {
	query := fmt.Sprintf("mimeType contains 'video/' and '%s' in parents and trashed=false", folderId)
	res, err := c.service.Files.List().Q(query).Fields("files(id, name, size)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive: list videos: %w", err)
	}
	return res.Files, nil
}

func (c *Client) findFile(ctx context.Context, folderId, name string) (*drive.File, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", name, folderId)
	res, err := c.service.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive: find %s: %w", name, err)
	}
	if len(res.Files) == 0 {
		return nil, nil
	}
	return res.Files[0], nil
}

func (c *Client) readTextFile(ctx context.Context, fileId string) (string, error) {
	res, err := c.service.Files.Get(fileId).Context(ctx).Download()
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Sidecar resolves the video's metadata bundle. Missing sidecar files fall
// back to defaults: title from the file name, empty description, no tags.
func (c *Client) Sidecar(ctx context.Context, v Video) (videouploader.Metadata, error) {
	meta := videouploader.Metadata{Title: v.Name}

	if f, err := c.findFile(ctx, v.FolderId, sidecar_title); err != nil {
		return meta, err
	} else if f != nil {
		title, err := c.readTextFile(ctx, f.Id)
		if err != nil {
			return meta, err
		}
		if title != "" {
			meta.Title = title
		}
	}

	if f, err := c.findFile(ctx, v.FolderId, sidecar_description); err != nil {
		return meta, err
	} else if f != nil {
		description, err := c.readTextFile(ctx, f.Id)
		if err != nil {
			return meta, err
		}
		meta.Description = description
	}

	if f, err := c.findFile(ctx, v.FolderId, sidecar_tags); err != nil {
		return meta, err
	} else if f != nil {
		text, err := c.readTextFile(ctx, f.Id)
		if err != nil {
			return meta, err
		}
		meta.Tags = SplitTags(text)
	}

	if f, err := c.findFile(ctx, v.FolderId, sidecar_thumbnail); err != nil {
		return meta, err
	} else if f != nil {
		path, _, err := c.downloadToTemp(ctx, f.Id, sidecar_thumbnail)
		if err != nil {
			return meta, err
		}
		meta.ThumbnailPath = path
	}

	return meta, nil
}

// SplitTags turns comma-delimited sidecar text into a tag list, dropping
// empty items.
func SplitTags(text string) []string {
	if text == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(text, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Fetch downloads the video bytes to a temp file and returns the artifact
// plus a cleanup function that removes the download.
func (c *Client) Fetch(ctx context.Context, v Video) (videouploader.Artifact, func(), error) {
	path, size, err := c.downloadToTemp(ctx, v.Id, v.Name)
	if err != nil {
		return videouploader.Artifact{}, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		os.RemoveAll(filepath.Dir(path))
		return videouploader.Artifact{}, nil, err
	}
	cleanup := func() {
		file.Close()
		os.RemoveAll(filepath.Dir(path))
	}
	return videouploader.Artifact{
		Id:     v.Id,
		Name:   v.Name,
		Size:   size,
		Source: file,
	}, cleanup, nil
}

func (c *Client) downloadToTemp(ctx context.Context, fileId, name string) (string, int64, error) {
	res, err := c.service.Files.Get(fileId).Context(ctx).Download()
	if err != nil {
		return "", 0, fmt.Errorf("drive: download %s: %w", name, err)
	}
	defer res.Body.Close()

	dir := filepath.Join(c.tempDir, "drivecast-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return "", 0, err
	}
	size, err := io.Copy(out, res.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(dir)
		return "", 0, err
	}
	return path, size, nil
}
