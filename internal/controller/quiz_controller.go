package controller

import (
	"errors"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService   *service.QuizService
	CourseService *service.CourseService
}

func NewQuizController(quizService *service.QuizService, courseService *service.CourseService) *QuizController {
	return &QuizController{QuizService: quizService, CourseService: courseService}
}

// swagger:model QuizQuestionRequest
type QuizQuestionRequest struct {
	Title              string   `json:"title" binding:"required"`
	Answers            []string `json:"answers" binding:"required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Order              int      `json:"order"`
}

// swagger:model QuizRequest
type QuizRequest struct {
	Title     string                `json:"title" binding:"required"`
	Questions []QuizQuestionRequest `json:"questions" binding:"required,min=1"`
}

func toQuestions(reqs []QuizQuestionRequest) []model.QuizQuestion {
	questions := make([]model.QuizQuestion, len(reqs))
	for i, q := range reqs {
		questions[i] = model.QuizQuestion{
			Title:              q.Title,
			Answers:            q.Answers,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Order:              q.Order,
		}
	}
	return questions
}

// Create godoc
// @Summary Attach a quiz to a lesson
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param body body QuizRequest true "Quiz definition"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id}/quiz [post]
func (c *QuizController) Create(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.CourseService.GetLesson(lessonID); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	quiz := &model.Quiz{
		LessonID:  lessonID,
		Title:     req.Title,
		Questions: toQuestions(req.Questions),
	}
	if err := c.QuizService.Create(quiz); err != nil {
		if errors.Is(err, util.ErrInvalidSubmission) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, quiz)
}

// GetForStudent godoc
// @Summary Lesson quiz for taking
// @Description Correct-answer indices are replaced with -1
// @Tags quizzes
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id}/quiz [get]
func (c *QuizController) GetForStudent(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.QuizService.GetForStudent(lessonID)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// swagger:model SubmitQuizRequest
type SubmitQuizRequest struct {
	QuizID          uint  `json:"quizId" binding:"required"`
	SelectedAnswers []int `json:"selectedAnswers" binding:"required"`
}

// Submit godoc
// @Summary Submit quiz answers for grading
// @Description Pass records the completion; fail returns review data for each wrong answer
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param body body SubmitQuizRequest true "Selected answer indices in question order"
// @Success 200 {object} util.Response{data=service.GradeResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id}/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.QuizService.Grade(claims.UserID, req.QuizID, lessonID, req.SelectedAnswers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidSubmission):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// UpdateQuestions godoc
// @Summary Replace the questions of a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param body body QuizRequest true "New question set"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuestions(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.QuizService.UpdateQuestions(quizID, toQuestions(req.Questions)); err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidSubmission):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary Delete a quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizService.Delete(quizID); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
