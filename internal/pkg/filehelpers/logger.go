package filehelpers

import (
	"io"
	"log"
)

// Close закрывает ресурс и логирует ошибку от имени компонента.
func Close(c io.Closer, component string) {
	err := c.Close()
	if err != nil {
		log.Printf("[%s] Error closing: %v\n", component, err)
	}
}
