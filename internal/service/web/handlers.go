package web

import (
	"ImageValidator/internal/app/requester"
	"ImageValidator/internal/service/image"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const initialDetails = "Upload an image and click 'Validate Image' to see results here."

var examples = []string{
	"It should be a driver's license",
	"It should be a passport",
	"It should contain a person's face",
	"It should be a business card",
	"It should be a receipt or invoice",
	"It should show a government-issued ID",
	"It should contain text in English",
}

// errTooLarge — файл больше MaxUploadBytes.
var errTooLarge = errors.New("upload is too large")

type pageData struct {
	Criterion string
	Status    string
	Details   string
	Fields    []requester.Field
	Examples  []string
}

// wsRequest сообщение клиента по WebSocket. Image — base64 или data URL.
type wsRequest struct {
	Criterion string `json:"criterion"`
	Image     string `json:"image"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Details: initialDetails, Examples: examples})
}

func (s *Server) handleForm(c *gin.Context) {
	criterion, reply, code := s.process(c)
	c.HTML(code, "index.html", pageData{
		Criterion: criterion,
		Status:    reply.Status,
		Details:   reply.Details,
		Fields:    reply.Fields,
		Examples:  examples,
	})
}

func (s *Server) handleAPI(c *gin.Context) {
	_, reply, code := s.process(c)
	c.JSON(code, reply)
}

// process разбирает multipart-форму и вызывает обработчик. Код ответа отличается от 200 только для слишком больших файлов.
func (s *Server) process(c *gin.Context) (string, requester.Reply, int) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	img, err := s.readUpload(c)
	criterion := c.PostForm("criterion")
	if errors.Is(err, errTooLarge) {
		return criterion, requester.Reply{
			Status:  requester.StatusError,
			Details: "The uploaded image is too large",
		}, http.StatusRequestEntityTooLarge
	}

	return criterion, s.handler.Handle(c.Request.Context(), criterion, img), http.StatusOK
}

// readUpload возвращает nil без ошибки, если картинку не прислали или её не удалось декодировать.
func (s *Server) readUpload(c *gin.Context) (*image.Upload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errTooLarge
		}
		if !errors.Is(err, http.ErrMissingFile) {
			s.logger.Warnw("Не удалось разобрать форму", "error", err)
		}
		return nil, nil
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Warnw("Не удалось открыть загруженный файл", "name", fh.Filename, "error", err)
		return nil, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Warnw("Не удалось прочитать загруженный файл", "name", fh.Filename, "error", err)
		return nil, nil
	}
	return s.decode(fh.Filename, data), nil
}

func (s *Server) decode(name string, data []byte) *image.Upload {
	if len(data) == 0 {
		return nil
	}
	img, err := image.DecodeLimit(data, s.cfg.MaxPixels)
	if err != nil {
		s.logger.Warnw("Загруженный файл не является картинкой", "name", name, "bytes", len(data), "error", err)
		return nil
	}
	return img
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	// base64 раздувает данные на треть
	conn.SetReadLimit(s.cfg.MaxUploadBytes/3*4 + 64*1024)

	ctx := c.Request.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnw("WebSocket read error", "error", err)
			}
			return
		}

		var req wsRequest
		var reply requester.Reply
		if err := json.Unmarshal(msg, &req); err != nil {
			reply = requester.Reply{Status: requester.StatusError, Details: "Malformed request: expected JSON with criterion and image"}
		} else {
			reply = s.handler.Handle(ctx, req.Criterion, s.decodeBase64(req.Image))
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warnw("WebSocket write error", "error", err)
			return
		}
	}
}

func (s *Server) decodeBase64(v string) *image.Upload {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, ";base64,"); strings.HasPrefix(v, "data:") && i >= 0 {
		v = v[i+len(";base64,"):]
	}
	if v == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		s.logger.Warnw("Картинка в WebSocket-сообщении не в base64", "error", err)
		return nil
	}
	return s.decode("websocket", data)
}
