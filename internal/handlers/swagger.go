package handlers

// @title Retail Cockpit API
// @version 1.0
// @description Sales KPI dashboard for retail stores: targets, achievement, transaction values and category mix per employee, store and area
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name dashboard
// @tag.description Aggregated KPI views and charts

// @tag.name employees
// @tag.description Employees and monthly targets

// @tag.name stores
// @tag.description Retail outlets

// @tag.name tasks
// @tag.description Tasks sent by managers to employees

// @tag.name rules
// @tag.description Business rules shown on the dashboard

// @tag.name data
// @tag.description Imports, manual entry, exports and resets

// @tag.name users
// @tag.description Account approval and roles

// @tag.name auth
// @tag.description Authentication operations
