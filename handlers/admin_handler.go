package handlers

import (
	"errors"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListUsers(c *fiber.Ctx) error {
	var users []models.User
	query := database.DB.Preload("Department")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	return c.JSON(users)
}

type UpdateUserRequest struct {
	Role         *string `json:"role" validate:"omitempty,oneof=student instructor admin"`
	IsActive     *bool   `json:"is_active"`
	DepartmentID *string `json:"department_id" validate:"omitempty,uuid4"`
}

func UpdateUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.DepartmentID != nil {
		departmentID, _ := uuid.Parse(*req.DepartmentID)
		var department models.Department
		if err := database.DB.First(&department, "id = ?", departmentID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Department not found"})
		}
		user.DepartmentID = &departmentID
	}
	database.DB.Save(&user)

	return c.JSON(user)
}

type DepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func CreateDepartment(c *fiber.Ctx) error {
	var req DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	department := models.Department{Name: req.Name, Description: req.Description}
	if err := database.DB.Create(&department).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Department already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create department"})
	}
	return c.Status(fiber.StatusCreated).JSON(department)
}

func ListDepartments(c *fiber.Ctx) error {
	var departments []models.Department
	database.DB.Find(&departments)
	return c.JSON(departments)
}

func DeleteDepartment(c *fiber.Ctx) error {
	departmentID := c.Params("departmentId")
	result := database.DB.Delete(&models.Department{}, "id = ?", departmentID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete department"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
