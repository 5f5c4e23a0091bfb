package api

import "strings"

// IconFor returns the icon name and color the service assigns to a rule whose
// first extension is ext. It lets the UI preview a draft before the service
// has created it.
func IconFor(ext string) (icon, color string) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "tiff", "heic", "avif":
		return "image", "indigo"
	case "mp4", "mkv", "avi", "mov", "wmv", "webm":
		return "movie", "purple"
	case "mp3", "flac", "wav", "aac", "ogg":
		return "music_note", "pink"
	case "pdf", "doc", "docx", "txt", "rtf":
		return "description", "amber"
	case "xls", "xlsx", "csv":
		return "table_chart", "amber"
	case "ppt", "pptx":
		return "slideshow", "amber"
	case "zip", "rar", "7z", "tar", "gz", "xz":
		return "folder_zip", "slate"
	case "exe", "msi", "msix", "dmg", "pkg", "apk":
		return "install_desktop", "red"
	case "iso":
		return "album", "slate"
	case "torrent":
		return "download", "slate"
	case "html", "htm":
		return "web", "slate"
	case "json", "xml", "yaml", "yml":
		return "code", "slate"
	case "srt", "vtt":
		return "subtitles", "slate"
	default:
		return "insert_drive_file", "slate"
	}
}

// NormalizeExtensions trims whitespace, lower-cases and dot-prefixes each
// extension, dropping empties and duplicates while keeping order.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		trimmed := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, "."+trimmed)
	}
	return out
}
