package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"classqa/internal/backend"
	"classqa/internal/config"
	"classqa/internal/handler"
	"classqa/internal/middleware"
	"classqa/internal/repository"
)

func main() {
	prime := flag.Bool("prime", false, "drop and recreate the database schema before serving")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()

	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	bg, err := backend.New(backend.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DSN(),
		Prime:        *prime,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       log,
	})
	if err != nil {
		log.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	shared := backend.NewShared(bg)
	defer shared.Close()

	lectureRepo := repository.NewLectureRepository(shared)
	questionRepo := repository.NewQuestionRepository(shared, cfg.MaxQuestions)
	answerRepo := repository.NewAnswerRepository(shared)

	auth := middleware.NewAuth(cfg.SessionKey)
	lectures := handler.NewLectureHandler(lectureRepo, questionRepo, answerRepo, cfg.IsAdmin)
	login := handler.NewLoginHandler(auth)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", lectures.List)
	mux.HandleFunc("GET /questions/{num}", lectures.Questions)
	mux.HandleFunc("POST /questions/{num}", lectures.SubmitQuestion)
	mux.HandleFunc("GET /answers/{num}", lectures.Answers)
	mux.HandleFunc("POST /answers/{num}", lectures.SubmitAnswer)
	mux.HandleFunc("POST /admin/lec", lectures.AddLecture)
	mux.HandleFunc("GET /login", login.LoginPage)
	mux.HandleFunc("POST /login", login.Login)
	mux.HandleFunc("POST /logout", login.Logout)

	log.Info("server listening", "port", cfg.Port, "driver", cfg.DBDriver, "max_questions", cfg.MaxQuestions)
	if err := http.ListenAndServe(":"+cfg.Port, auth.RequireIdentity(mux)); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
