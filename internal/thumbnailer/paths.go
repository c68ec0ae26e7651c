package thumbnailer

import (
	"fmt"
	"path"
	"path/filepath"
)

// ThumbnailExt is appended to the source file name to name its thumbnail.
const ThumbnailExt = ".jpg"

// AssetPathSet holds the storage and staging locations touched by one run.
type AssetPathSet struct {
	SourcePath         string
	ThumbnailPath      string
	LocalSourcePath    string
	LocalThumbnailPath string
}

// ThumbnailPath names the thumbnail object for sourcePath inside thumbnailDir,
// e.g. public/video/a.mp4 -> public/video/thumbnail/a.mp4.jpg.
func ThumbnailPath(thumbnailDir, sourcePath string) string {
	return path.Clean(path.Join(thumbnailDir, path.Base(sourcePath)+ThumbnailExt))
}

// NewAssetPathSet derives every path for sourcePath. Local paths mirror the
// storage paths under stagingRoot and may not escape it.
func NewAssetPathSet(sourcePath, thumbnailDir, stagingRoot string) (AssetPathSet, error) {
	set := AssetPathSet{
		SourcePath:    sourcePath,
		ThumbnailPath: ThumbnailPath(thumbnailDir, sourcePath),
	}

	var err error
	if set.LocalSourcePath, err = localPath(stagingRoot, set.SourcePath); err != nil {
		return AssetPathSet{}, err
	}
	if set.LocalThumbnailPath, err = localPath(stagingRoot, set.ThumbnailPath); err != nil {
		return AssetPathSet{}, err
	}
	return set, nil
}

func localPath(root, storagePath string) (string, error) {
	rel := filepath.FromSlash(storagePath)
	base := path.Base(storagePath)
	if !filepath.IsLocal(rel) || base == "." || base == ".." {
		return "", fmt.Errorf("object path %q cannot be staged locally", storagePath)
	}
	return filepath.Join(root, rel), nil
}
