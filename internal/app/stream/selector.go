package stream

import (
	"sort"

	"GoStream/internal/pkg/filehelpers"
)

// Файлы меньше этого размера считаем сэмплами/трейлерами, если в раздаче
// есть заметно более крупный кандидат.
const minMainFileSize = 50 << 20 // 50 MiB

// SelectPlayableFile выбирает файл для автоматического воспроизведения.
// Возвращает nil, если в раздаче нет ни одного видеофайла.
//
// Сортировка двухступенчатая: сначала отсечение мелочи по размеру
// (иначе первым по алфавиту окажется sample.mp4), потом — лексикографический
// порядок имён, чтобы из сериала выбрать первую серию, а не самую большую.
func SelectPlayableFile(files []File) File {
	var videoFiles []File
	for _, f := range files {
		if filehelpers.IsVideoFile(f.Name()) {
			videoFiles = append(videoFiles, f)
		}
	}

	if len(videoFiles) == 0 {
		return nil
	}

	var maxSize int64
	for _, f := range videoFiles {
		if f.Length() > maxSize {
			maxSize = f.Length()
		}
	}

	// Оставляем файлы крупнее 10% от максимума или абсолютного порога
	var mainFiles []File
	for _, f := range videoFiles {
		if f.Length() > maxSize/10 || f.Length() > minMainFileSize {
			mainFiles = append(mainFiles, f)
		}
	}

	// Раз видеофайлы есть — что-то вернуть обязаны
	if len(mainFiles) == 0 {
		largest := videoFiles[0]
		for _, f := range videoFiles[1:] {
			if f.Length() > largest.Length() {
				largest = f
			}
		}
		return largest
	}

	sort.Slice(mainFiles, func(i, j int) bool {
		return mainFiles[i].Name() < mainFiles[j].Name()
	})

	return mainFiles[0]
}
